package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/prequel-dev/sigcascade/internal/pkg/cascade"
	"github.com/prequel-dev/sigcascade/internal/pkg/config"
	"github.com/prequel-dev/sigcascade/internal/pkg/ux"
	"github.com/rs/zerolog/log"
)

var Options struct {
	Color    bool   `short:"c" help:"${colorHelp}"`
	Config   string `short:"f" help:"${configHelp}" type:"path" predictor:"yaml"`
	JsonLogs bool   `short:"j" help:"${jsonLogsHelp}" default:"false"`
	Level    string `short:"l" help:"${levelHelp}"`
	Limit    *int64 `short:"m" help:"${limitHelp}"`
	Policy   string `short:"p" help:"${policyHelp}"`
	Summary  bool   `short:"s" help:"${summaryHelp}"`
	Version  bool   `short:"v" help:"${versionHelp}"`
}

var (
	defaultConfigDir = filepath.Join(os.Getenv("HOME"), ".sigcascade")
)

const (
	configFile = "config.yaml"
)

var (
	loadConfigFunc           = loadConfig
	traceOut       io.Writer = os.Stdout
	summaryOut     io.Writer = os.Stderr
)

// SetOutput redirects the trace and the summary table.
func SetOutput(trace, summary io.Writer) {
	if trace != nil {
		traceOut = trace
	}
	if summary != nil {
		summaryOut = summary
	}
}

func loadConfig() (*config.Config, error) {
	if Options.Config != "" {
		return config.LoadFile(Options.Config)
	}
	return config.LoadConfig(defaultConfigDir, configFile)
}

func InitAndExecute(ctx context.Context) error {
	var (
		c        *config.Config
		dopts    []cascade.OptT
		bindings []config.Binding
		seeds    []syscall.Signal
		err      error
	)

	if Options.Version {
		ux.PrintVersion(traceOut)
		return nil
	}

	if c, err = loadConfigFunc(); err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return ux.ConfigError(err)
	}

	// CLI overrides config
	if Options.Policy != "" {
		c.Policy = Options.Policy
	}
	if Options.Limit != nil {
		if *Options.Limit <= 0 {
			err = fmt.Errorf("%w: %d", config.ErrLimit, *Options.Limit)
			log.Error().Err(err).Msg("Invalid limit")
			return ux.ConfigError(err)
		}
		c.Limit = *Options.Limit
	}

	if dopts, err = c.DispatcherOpts(); err != nil {
		log.Error().Err(err).Msg("Failed to resolve dispatcher options")
		return ux.ConfigError(err)
	}

	if bindings, err = c.Bindings(); err != nil {
		log.Error().Err(err).Msg("Failed to resolve handlers")
		return ux.ConfigError(err)
	}

	if seeds, err = c.SeedSignals(); err != nil {
		log.Error().Err(err).Msg("Failed to resolve seed signals")
		return ux.ConfigError(err)
	}

	if len(seeds) == 0 {
		ux.PrintUsage(traceOut)
		return config.ErrNoSeeds
	}

	var (
		pid    = os.Getpid()
		tracer = ux.NewTracer(traceOut, Options.Color)
		d      = cascade.New(append(dopts, cascade.WithPid(pid), cascade.WithTracer(tracer))...)
	)
	defer d.Close()

	for _, b := range bindings {
		if err = d.Handle(b.Signal, b.Guard); err != nil {
			log.Error().Err(err).Str("handler", b.Guard.Name).Msg("Failed to register handler")
			return ux.ConfigError(err)
		}
	}

	log.Debug().
		Int("pid", pid).
		Str("policy", string(d.Policy())).
		Int("handlers", len(bindings)).
		Msg("Starting cascade")

	tracer.Pid(pid)

	if err = d.Run(ctx, seeds...); err != nil {
		log.Error().Err(err).Msg("Cascade failed")
		return ux.RuntimeError(err)
	}

	if Options.Summary {
		summary := ux.SummaryT{
			Policy: d.Policy(),
			Pid:    pid,
			Stats:  d.Stats(),
		}
		for _, b := range bindings {
			summary.Guards = append(summary.Guards, b.Guard.Stats())
		}
		ux.PrintSummary(summaryOut, summary)
	}

	return nil
}
