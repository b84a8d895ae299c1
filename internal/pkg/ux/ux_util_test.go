package ux

import (
	"bytes"
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/prequel-dev/sigcascade/internal/pkg/cascade"
)

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf)
	output := buf.String()

	if !strings.Contains(output, "0.1.0") {
		t.Errorf("Expected output to contain the version, got: %s", output)
	}
	if !strings.Contains(output, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Error("Expected output to contain OS/arch")
	}
	if !strings.Contains(output, "Copyright") {
		t.Error("Expected output to contain the copyright line")
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	output := buf.String()

	if !strings.Contains(output, "Usage:") {
		t.Errorf("Expected output to contain 'Usage:', got: %s", output)
	}
	if !strings.Contains(output, "--policy deferred") {
		t.Error("Expected output to contain an example")
	}
}

func TestHelpVars(t *testing.T) {
	vars := HelpVars()
	for k, v := range vars {
		if !strings.HasSuffix(k, "Help") || v == "" {
			t.Errorf("Unexpected help var %q=%q", k, v)
		}
	}
}

func TestCategoryError(t *testing.T) {
	err := errors.New("unknown delivery policy")
	if got := ConfigError(err); got != err {
		t.Errorf("Expected the same error back, got %v", got)
	}
	if got := RuntimeError(err); got != err {
		t.Errorf("Expected the same error back, got %v", got)
	}
}

func TestNewTracer(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false
	t.Cleanup(func() {
		color.NoColor = noColor
	})

	var plain, colored bytes.Buffer

	NewTracer(&plain, false).Enter("A", 1)
	if plain.String() != "A 1 +\n" {
		t.Errorf("Unexpected plain line %q", plain.String())
	}

	tr := NewTracer(&colored, true)
	tr.Pid(7)
	tr.Enter("A", 1)
	tr.Exit("A", 1)

	out := colored.String()
	for _, want := range []string{"pid: 7", "A 1 +", "A 1 -", "\x1b["} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in colored output %q", want, out)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer

	PrintSummary(&buf, SummaryT{
		Policy: cascade.PolicyDeferred,
		Pid:    99,
		Stats:  cascade.Stats{Raised: 24, Delivered: 11, Coalesced: 13, MaxDepth: 3},
		Guards: []cascade.GuardStats{
			{Name: "A", Limit: 3, Count: 4, Entered: 3, Exited: 3},
			{Name: "B", Limit: 3, Count: 7, Entered: 3, Exited: 3},
		},
	})

	out := strings.ToLower(buf.String())
	for _, want := range []string{"deferred policy, pid 99", "handler", "coalesced", "13"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in summary:\n%s", want, out)
		}
	}
}
