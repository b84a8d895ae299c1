package sigs

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// InitSignals returns a context cancelled on a shutdown signal. SIGINT is
// left alone since the cascade raises it against this process.
func InitSignals() context.Context {
	return handleKill(context.Background(), syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
}

func handleKill(parent context.Context, sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)
		select {
		case s := <-ch:
			log.Info().Stringer("signal", s).Msg("Shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}
