// Package cascade delivers signals to registered handlers under an explicit
// re-entrancy policy. A Dispatcher owns all delivery state: handlers, the
// blocked and pending sets, the event queue and run statistics.
package cascade

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	ErrInvalidSignal = errors.New("invalid signal")
	ErrUncatchable   = errors.New("signal cannot be caught")
	ErrNoProcess     = errors.New("no such process")
	ErrDepth         = errors.New("delivery depth exceeded")
	ErrPolicy        = errors.New("unknown delivery policy")
	ErrClosed        = errors.New("dispatcher closed")
)

type Policy string

const (
	// Handlers re-enter immediately; no signal is blocked during its own handler.
	PolicyNested Policy = "nested"
	// A signal is blocked during its own handler; raises while blocked coalesce.
	PolicyDeferred Policy = "deferred"
	// Raises append to a FIFO queue; handlers run to completion.
	PolicyQueued Policy = "queued"
	// Raises go through kill(2); delivery order is runtime-defined.
	PolicyKernel Policy = "kernel"
)

var Policies = []Policy{PolicyNested, PolicyDeferred, PolicyQueued, PolicyKernel}

func ParsePolicy(s string) (Policy, error) {
	for _, p := range Policies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrPolicy, s)
}

const (
	defMaxDepth = 64
	defSettle   = 200 * time.Millisecond
	defRetries  = 3
	maxSignal   = 64
)

type Handler interface {
	Serve(*State)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(*State)

func (f HandlerFunc) Serve(s *State) {
	f(s)
}

// State is handed to a handler for the duration of one delivery.
type State struct {
	d     *Dispatcher
	sig   syscall.Signal
	depth int
}

func (s *State) Signal() syscall.Signal {
	return s.sig
}

func (s *State) Depth() int {
	return s.depth
}

func (s *State) Tracer() Tracer {
	return s.d.tracer
}

// Raise sends sig to the owning process. Failures are logged and counted, not
// returned, so a handler always runs to completion.
func (s *State) Raise(sig syscall.Signal) {
	if err := s.d.Raise(s.d.pid, sig); err != nil {
		s.d.raiseFailed(sig, err)
	}
}

// Stats counts dispatcher activity. Under the kernel policy Coalesced is the
// gap between successful kill(2) calls and deliveries once the run settles.
type Stats struct {
	Raised      int64
	Delivered   int64
	Coalesced   int64
	Ignored     int64
	Dropped     int64
	RaiseErrors int64
	MaxDepth    int
}

type Dispatcher struct {
	policy   Policy
	pid      int
	tracer   Tracer
	maxDepth int
	settle   time.Duration
	retries  uint

	handlers map[syscall.Signal]Handler
	blocked  map[syscall.Signal]int
	pending  map[syscall.Signal]bool
	queue    []syscall.Signal
	draining bool
	depth    int
	stats    Stats

	// kernel policy only
	ch     chan os.Signal
	closed bool
}

type optsT struct {
	policy   Policy
	pid      int
	tracer   Tracer
	maxDepth int
	settle   time.Duration
	retries  uint
}

type OptT func(*optsT)

func WithPolicy(p Policy) OptT {
	return func(o *optsT) {
		o.policy = p
	}
}

func WithPid(pid int) OptT {
	return func(o *optsT) {
		o.pid = pid
	}
}

func WithTracer(t Tracer) OptT {
	return func(o *optsT) {
		o.tracer = t
	}
}

func WithMaxDepth(n int) OptT {
	return func(o *optsT) {
		o.maxDepth = n
	}
}

// WithSettle sets how long the kernel policy waits for further deliveries
// before the run is considered finished.
func WithSettle(d time.Duration) OptT {
	return func(o *optsT) {
		o.settle = d
	}
}

func WithRetries(n uint) OptT {
	return func(o *optsT) {
		o.retries = n
	}
}

func parseOpts(opts ...OptT) optsT {
	o := optsT{
		policy:   PolicyNested,
		pid:      os.Getpid(),
		tracer:   nopTracer{},
		maxDepth: defMaxDepth,
		settle:   defSettle,
		retries:  defRetries,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = nopTracer{}
	}
	if o.maxDepth <= 0 {
		o.maxDepth = defMaxDepth
	}
	if o.settle <= 0 {
		o.settle = defSettle
	}
	if o.retries == 0 {
		o.retries = 1
	}
	return o
}

// New returns a Dispatcher. A Dispatcher is driven from a single goroutine;
// handlers run on the goroutine that calls Run or Raise.
func New(opts ...OptT) *Dispatcher {
	o := parseOpts(opts...)
	return &Dispatcher{
		policy:   o.policy,
		pid:      o.pid,
		tracer:   o.tracer,
		maxDepth: o.maxDepth,
		settle:   o.settle,
		retries:  o.retries,
		handlers: make(map[syscall.Signal]Handler),
		blocked:  make(map[syscall.Signal]int),
		pending:  make(map[syscall.Signal]bool),
	}
}

func (d *Dispatcher) Policy() Policy {
	return d.policy
}

func (d *Dispatcher) Pid() int {
	return d.pid
}

func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// Handle binds h to sig, replacing any previous binding. Under the kernel
// policy the signal is routed away from its default action until Close.
func (d *Dispatcher) Handle(sig syscall.Signal, h Handler) error {
	if err := validSignal(sig); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for %v", ErrInvalidSignal, sig)
	}
	if d.closed {
		return ErrClosed
	}
	if d.policy == PolicyKernel {
		d.notify(sig)
	}
	d.handlers[sig] = h
	return nil
}

// Close releases the signals taken over by the kernel policy. Kernel raises
// fail with ErrClosed afterwards.
func (d *Dispatcher) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.ch != nil {
		signal.Stop(d.ch)
	}
	return nil
}

func (d *Dispatcher) Signals() []syscall.Signal {
	sigs := make([]syscall.Signal, 0, len(d.handlers))
	for s := 1; s < maxSignal; s++ {
		if _, ok := d.handlers[syscall.Signal(s)]; ok {
			sigs = append(sigs, syscall.Signal(s))
		}
	}
	return sigs
}

func validSignal(sig syscall.Signal) error {
	switch {
	case sig <= 0 || sig >= maxSignal:
		return fmt.Errorf("%w: %d", ErrInvalidSignal, int(sig))
	case sig == syscall.SIGKILL || sig == syscall.SIGSTOP:
		return fmt.Errorf("%w: %v", ErrUncatchable, sig)
	}
	return nil
}
