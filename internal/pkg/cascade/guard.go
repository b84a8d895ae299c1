package cascade

import (
	"sync/atomic"
	"syscall"
)

const DefaultLimit = 3

// Counter counts handler executions. It is never reset.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) Inc() int64 {
	return c.n.Add(1)
}

func (c *Counter) Load() int64 {
	return c.n.Load()
}

// Guard is a handler whose recursion is bounded by its own counter. Each
// invocation bumps the counter; invocations past Limit return without output
// or further raises.
type Guard struct {
	Name   string
	Limit  int64
	Raises []syscall.Signal

	count   Counter
	entered Counter
	exited  Counter
}

// NewGuard returns a guard that is productive for its first limit
// invocations. A limit below one yields a guard that never is.
func NewGuard(name string, limit int64, raises ...syscall.Signal) *Guard {
	return &Guard{
		Name:   name,
		Limit:  limit,
		Raises: raises,
	}
}

func (g *Guard) Serve(s *State) {
	x := g.count.Inc()
	if x > g.Limit {
		return
	}

	g.entered.Inc()
	s.Tracer().Enter(g.Name, x)

	for _, sig := range g.Raises {
		s.Raise(sig)
	}

	s.Tracer().Exit(g.Name, x)
	g.exited.Inc()
}

func (g *Guard) Count() int64 {
	return g.count.Load()
}

type GuardStats struct {
	Name    string
	Limit   int64
	Count   int64
	Entered int64
	Exited  int64
}

func (g *Guard) Stats() GuardStats {
	return GuardStats{
		Name:    g.Name,
		Limit:   g.Limit,
		Count:   g.count.Load(),
		Entered: g.entered.Load(),
		Exited:  g.exited.Load(),
	}
}
