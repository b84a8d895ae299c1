package main

import (
	"os"

	"github.com/prequel-dev/sigcascade/internal/pkg/cli"
	"github.com/prequel-dev/sigcascade/internal/pkg/logs"
	"github.com/prequel-dev/sigcascade/internal/pkg/sigs"
	"github.com/prequel-dev/sigcascade/internal/pkg/ux"

	"github.com/alecthomas/kong"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"
)

func main() {

	var (
		ctx    = sigs.InitSignals()
		parser = kong.Must(
			&cli.Options,
			kong.Name(ux.ProcessName()),
			kong.Description(ux.AppDesc),
			kong.Vars(ux.HelpVars()),
			kong.UsageOnError(),
		)
	)

	// Run kongplete.Complete to handle completion requests
	kongplete.Complete(parser,
		kongplete.WithPredictor("yaml", complete.PredictFiles("*.yaml")),
	)

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		parser.FatalIfErrorf(err)
	}

	logOpts := []logs.InitOpt{
		logs.WithLevel(cli.Options.Level),
	}

	if !cli.Options.JsonLogs {
		logOpts = append(logOpts, logs.WithPretty())
	}

	// Initialize logger first before any other logging
	logs.InitLogger(logOpts...)

	if err := cli.InitAndExecute(ctx); err != nil {
		os.Exit(1)
	}
}
