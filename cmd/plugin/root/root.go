package root

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prequel-dev/sigcascade/internal/pkg/cli"
	"github.com/prequel-dev/sigcascade/internal/pkg/logs"
	"github.com/prequel-dev/sigcascade/internal/pkg/ux"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SIGCASCADE"

type IOStreams struct {
	Out    io.Writer
	ErrOut io.Writer
}

type rootOptions struct {
	IOStreams
	v     *viper.Viper
	limit int64
}

func NewRunOptions(streams IOStreams) *rootOptions {
	return &rootOptions{
		IOStreams: streams,
		v:         viper.New(),
	}
}

func InitAndExecute(ctx context.Context, streams IOStreams) {
	o := NewRunOptions(streams)

	if err := RootCmd(ctx, o).Execute(); err != nil {
		fmt.Fprintln(o.ErrOut, err)
		os.Exit(1)
	}
}

func RootCmd(ctx context.Context, o *rootOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:           ux.CobraUsage,
		Short:         ux.CobraShort,
		Long:          ux.AppDesc,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := o.bind(cmd); err != nil {
			return err
		}
		return run(ctx, o)
	}

	cmd.Flags().BoolVarP(&cli.Options.Color, "color", "c", false, ux.HelpColor)
	cmd.Flags().StringVarP(&cli.Options.Config, "config", "f", "", ux.HelpConfig)
	cmd.Flags().BoolVarP(&cli.Options.JsonLogs, "json-logs", "j", false, ux.HelpJsonLogs)
	cmd.Flags().StringVarP(&cli.Options.Level, "level", "l", "", ux.HelpLevel)
	cmd.Flags().Int64VarP(&o.limit, "limit", "m", 0, ux.HelpLimit)
	cmd.Flags().StringVarP(&cli.Options.Policy, "policy", "p", "", ux.HelpPolicy)
	cmd.Flags().BoolVarP(&cli.Options.Summary, "summary", "s", false, ux.HelpSummary)
	cmd.Flags().BoolVarP(&cli.Options.Version, "version", "v", false, ux.HelpVersion)

	return cmd
}

// bind lets SIGCASCADE_* environment variables fill flags not set on the
// command line.
func (o *rootOptions) bind(cmd *cobra.Command) error {
	if err := o.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	cli.Options.Color = o.v.GetBool("color")
	cli.Options.Config = o.v.GetString("config")
	cli.Options.JsonLogs = o.v.GetBool("json-logs")
	cli.Options.Level = o.v.GetString("level")
	cli.Options.Limit = nil
	if o.v.IsSet("limit") {
		limit := o.v.GetInt64("limit")
		cli.Options.Limit = &limit
	}
	cli.Options.Policy = o.v.GetString("policy")
	cli.Options.Summary = o.v.GetBool("summary")
	cli.Options.Version = o.v.GetBool("version")

	return nil
}

func run(ctx context.Context, o *rootOptions) error {

	logOpts := []logs.InitOpt{
		logs.WithLevel(cli.Options.Level),
	}

	if !cli.Options.JsonLogs {
		logOpts = append(logOpts, logs.WithPretty())
	}

	logs.InitLogger(logOpts...)

	cli.SetOutput(o.Out, o.ErrOut)

	return cli.InitAndExecute(ctx)
}
