package cascade

import (
	"context"
	"fmt"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Raise sends sig to pid under the dispatcher's policy. The simulated policies
// only know the owning process.
func (d *Dispatcher) Raise(pid int, sig syscall.Signal) error {
	if err := validSignal(sig); err != nil {
		return err
	}

	if d.policy == PolicyKernel {
		// Unhandled signals keep their default action; never send them.
		if _, ok := d.handlers[sig]; !ok && pid == d.pid {
			d.stats.Ignored++
			return nil
		}
		return d.kill(pid, sig)
	}

	if pid != d.pid {
		return fmt.Errorf("%w: %d", ErrNoProcess, pid)
	}

	d.stats.Raised++

	switch d.policy {
	case PolicyNested:
		d.invoke(sig)

	case PolicyDeferred:
		if d.blocked[sig] > 0 {
			if d.pending[sig] {
				d.stats.Coalesced++
			}
			d.pending[sig] = true
			return nil
		}
		d.deliverBlocked(sig)

	case PolicyQueued:
		d.queue = append(d.queue, sig)
		if !d.draining {
			d.drainQueue()
		}

	default:
		return fmt.Errorf("%w: %q", ErrPolicy, d.policy)
	}

	return nil
}

// Run raises each seed in order and returns once the cascade has settled.
func (d *Dispatcher) Run(ctx context.Context, seeds ...syscall.Signal) error {
	if d.policy == PolicyKernel {
		return d.runKernel(ctx, seeds)
	}

	for _, sig := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Raise(d.pid, sig); err != nil {
			log.Error().Err(err).Stringer("signal", sig).Msg("Failed to raise seed signal")
			return err
		}
	}

	return nil
}

func (d *Dispatcher) invoke(sig syscall.Signal) {
	h, ok := d.handlers[sig]
	if !ok {
		d.stats.Ignored++
		log.Debug().Stringer("signal", sig).Msg("No handler, signal ignored")
		return
	}

	if d.depth >= d.maxDepth {
		d.stats.Dropped++
		log.Warn().Err(ErrDepth).
			Stringer("signal", sig).
			Int("depth", d.depth).
			Msg("Dropping delivery")
		return
	}

	d.depth++
	defer func() { d.depth-- }()

	if d.depth > d.stats.MaxDepth {
		d.stats.MaxDepth = d.depth
	}
	d.stats.Delivered++

	log.Trace().
		Stringer("signal", sig).
		Int("depth", d.depth).
		Str("policy", string(d.policy)).
		Msg("Deliver")

	h.Serve(&State{d: d, sig: sig, depth: d.depth})
}

// deliverBlocked runs the handler with sig blocked, then delivers whatever
// became pending and is no longer blocked.
func (d *Dispatcher) deliverBlocked(sig syscall.Signal) {
	d.blocked[sig]++
	d.invoke(sig)
	d.blocked[sig]--

	for {
		next, ok := d.nextPending()
		if !ok {
			return
		}
		delete(d.pending, next)
		d.deliverBlocked(next)
	}
}

// nextPending picks the lowest numbered pending signal that is not blocked.
func (d *Dispatcher) nextPending() (syscall.Signal, bool) {
	for s := syscall.Signal(1); s < maxSignal; s++ {
		if d.pending[s] && d.blocked[s] == 0 {
			return s, true
		}
	}
	return 0, false
}

func (d *Dispatcher) drainQueue() {
	d.draining = true
	defer func() { d.draining = false }()

	for len(d.queue) > 0 {
		sig := d.queue[0]
		d.queue = d.queue[1:]
		d.invoke(sig)
	}
}

func (d *Dispatcher) raiseFailed(sig syscall.Signal, err error) {
	d.stats.RaiseErrors++
	log.Warn().Err(err).
		Stringer("signal", sig).
		Int("pid", d.pid).
		Msg("Raise failed inside handler")
}
