package cascade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	kernelBuffer = 64
	killDelay    = time.Millisecond
)

// notify takes sig over from its default action. Deliveries that arrive
// outside Run stay buffered and are dispatched by the next Run.
func (d *Dispatcher) notify(sig syscall.Signal) {
	if d.ch == nil {
		d.ch = make(chan os.Signal, kernelBuffer)
	}
	signal.Notify(d.ch, sig)
}

func (d *Dispatcher) kill(pid int, sig syscall.Signal) error {
	if d.closed {
		return ErrClosed
	}

	err := retry.Do(
		func() error {
			return unix.Kill(pid, sig)
		},
		retry.Attempts(d.retries),
		retry.Delay(killDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
	if err != nil {
		return fmt.Errorf("kill(%d, %v): %w", pid, sig, err)
	}

	d.stats.Raised++
	return nil
}

func isTransient(err error) bool {
	return errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN)
}

// runKernel dispatches deliveries one at a time on the calling goroutine.
// The run ends once no delivery has arrived for the settle period.
func (d *Dispatcher) runKernel(ctx context.Context, seeds []syscall.Signal) error {
	if d.closed {
		return ErrClosed
	}
	if d.ch == nil {
		return nil
	}

	for _, sig := range seeds {
		if err := d.Raise(d.pid, sig); err != nil {
			log.Error().Err(err).Stringer("signal", sig).Msg("Failed to raise seed signal")
			return err
		}
	}

	timer := time.NewTimer(d.settle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case s := <-d.ch:
			sig, ok := s.(syscall.Signal)
			if !ok {
				continue
			}
			d.invoke(sig)
			timer.Reset(d.settle)

		case <-timer.C:
			// The runtime merges a signal raised while the same one is
			// still pending; count what never arrived.
			if gap := d.stats.Raised - d.stats.Delivered - d.stats.Coalesced; gap > 0 {
				d.stats.Coalesced += gap
			}
			log.Debug().
				Dur("settle", d.settle).
				Int64("delivered", d.stats.Delivered).
				Int64("coalesced", d.stats.Coalesced).
				Msg("Kernel delivery settled")
			return nil
		}
	}
}
