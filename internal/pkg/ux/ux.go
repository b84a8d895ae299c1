package ux

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/prequel-dev/sigcascade/internal/pkg/verz"
)

const (
	AppDesc              = "sigcascade raises SIGINT and SIGCONT against itself from inside their own handlers and traces the nested deliveries."
	ErrorCategoryConfig  = "Config"
	ErrorCategoryRuntime = "Runtime"
	ErrorHelpPolicy      = "Valid policies: nested, deferred, queued, kernel"
	ErrorHelpLimit       = "Set --limit or limit: to a value of 1 or more"
)

const (
	HelpColor    = "Color the enter and exit markers"
	HelpConfig   = "Path to a config file (default ~/.sigcascade/config.yaml)"
	HelpJsonLogs = "Print logs in JSON format to stderr"
	HelpLevel    = "Print logs at this level to stderr"
	HelpLimit    = "Productive invocations per handler before the guard stops recursion"
	HelpPolicy   = "Delivery policy: nested, deferred, queued or kernel"
	HelpSummary  = "Print a summary table to stderr after the run"
	HelpVersion  = "Print version and exit"
)

const (
	lineCopyright = "Copyright 2025 Prequel Software, Inc. (https://prequel.dev)"
	usageFmt      = "Usage: %s [flags]\n"
	usageHelp     = "See --help for more information\n\n"
	usageExamples = "Examples:\n"
	usageExample1 = "  %s --policy deferred\n"
	usageExample2 = "  %s --policy kernel --summary\n"
	versionTmpl   = "%s %s %s %s/%s %s\n"
	CobraUsage    = "sigcascade [flags]"
	CobraShort    = "Trace nested signal delivery"
)

// HelpVars feeds kong's ${...} interpolation in flag help strings.
func HelpVars() map[string]string {
	return map[string]string{
		"colorHelp":    HelpColor,
		"configHelp":   HelpConfig,
		"jsonLogsHelp": HelpJsonLogs,
		"levelHelp":    HelpLevel,
		"limitHelp":    HelpLimit,
		"policyHelp":   HelpPolicy,
		"summaryHelp":  HelpSummary,
		"versionHelp":  HelpVersion,
	}
}

func PrintVersion(w io.Writer) {
	semver := verz.Semver()
	if v, err := verz.Version(); err == nil {
		semver = v.String()
	}
	fmt.Fprintf(w, versionTmpl, ProcessName(), semver, verz.Githash, runtime.GOOS, runtime.GOARCH, verz.Date)
	fmt.Fprintln(w, lineCopyright)
}

func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageFmt, ProcessName())
	fmt.Fprint(w, usageHelp)
	fmt.Fprint(w, usageExamples)
	fmt.Fprintf(w, usageExample1, ProcessName())
	fmt.Fprintf(w, usageExample2, ProcessName())
}

func ConfigError(err error) error {
	return CategoryError(ErrorCategoryConfig, err)
}

func RuntimeError(err error) error {
	return CategoryError(ErrorCategoryRuntime, err)
}

func CategoryError(category string, err error) error {
	title := color.New(color.FgHiRed).Add(color.Bold)
	title.Fprintf(os.Stderr, "%s error: ", category)
	fmt.Fprintf(os.Stderr, "%v\n", err)
	ErrorHelp(category, err)
	return err
}

func ErrorHelp(category string, err error) {
	switch {
	case category == ErrorCategoryConfig && strings.Contains(err.Error(), "policy"):
		fmt.Fprintln(os.Stderr, ErrorHelpPolicy)
	case category == ErrorCategoryConfig && strings.Contains(err.Error(), "limit"):
		fmt.Fprintln(os.Stderr, ErrorHelpLimit)
	}
}

func ProcessName() string {
	return filepath.Base(os.Args[0])
}
