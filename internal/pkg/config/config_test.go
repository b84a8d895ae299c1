package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prequel-dev/sigcascade/internal/pkg/cascade"
	"github.com/prequel-dev/sigcascade/internal/pkg/config"
)

func TestMarshal(t *testing.T) {
	out := config.Marshal()
	if !strings.Contains(out, "handlers:") {
		t.Fatalf("expected handlers in output")
	}

	out = config.Marshal(config.WithSettle(2 * time.Second))
	if !strings.Contains(out, "settle: 2s") {
		t.Fatalf("expected settle option in output, got:\n%s", out)
	}

	out = config.Marshal(config.WithPolicy("deferred"), config.WithLimit(5))
	if !strings.Contains(out, "policy: deferred") || !strings.Contains(out, "limit: 5") {
		t.Fatalf("expected policy and limit options in output, got:\n%s", out)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg, err := config.LoadConfig(dir, "cfg.yaml", config.WithPolicy("queued"))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Policy != "queued" {
		t.Fatalf("expected policy queued got %v", cfg.Policy)
	}
	if len(cfg.Handlers) != 2 {
		t.Fatalf("expected default handlers, got %d", len(cfg.Handlers))
	}
	if _, err := os.Stat(filepath.Join(dir, "cfg.yaml")); err != nil {
		t.Fatalf("expected config file written: %v", err)
	}

	// Existing file wins over options.
	cfg, err = config.LoadConfig(dir, "cfg.yaml", config.WithPolicy("deferred"))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Policy != "queued" {
		t.Fatalf("expected existing policy queued got %v", cfg.Policy)
	}
}

func TestLoadConfigFromBytes(t *testing.T) {
	data := "policy: kernel\nsettle: 1s\nhandlers: []\n"
	cfg, err := config.LoadConfigFromBytes(data)
	if err != nil {
		t.Fatalf("LoadConfigFromBytes: %v", err)
	}
	if cfg.Settle != time.Second {
		t.Fatalf("expected 1s settle, got %v", cfg.Settle)
	}
	if _, err := cfg.Bindings(); !errors.Is(err, config.ErrHandlers) {
		t.Fatalf("expected ErrHandlers, got %v", err)
	}

	if _, err := config.LoadConfigFromBytes("policy: [\n"); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteDefaultConfigAndDispatcherOpts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := config.WriteDefaultConfig(path, config.WithSettle(2*time.Second)); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(data), "settle: 2s") {
		t.Fatalf("settle option missing")
	}

	cfg, err := config.LoadConfig(dir, "cfg.yaml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	opts, err := cfg.DispatcherOpts()
	if err != nil {
		t.Fatalf("DispatcherOpts: %v", err)
	}
	if len(opts) == 0 {
		t.Fatalf("expected dispatcher options")
	}

	cfg.Policy = "eager"
	if _, err := cfg.DispatcherOpts(); !errors.Is(err, cascade.ErrPolicy) {
		t.Fatalf("expected ErrPolicy, got %v", err)
	}
}

func TestBindings(t *testing.T) {
	cfg, err := config.LoadConfigFromBytes(config.DefaultConfig)
	if err != nil {
		t.Fatalf("LoadConfigFromBytes: %v", err)
	}

	bindings, err := cfg.Bindings()
	if err != nil {
		t.Fatalf("Bindings: %v", err)
	}

	type bindT struct {
		Signal syscall.Signal
		Name   string
		Limit  int64
		Raises []syscall.Signal
	}

	var got []bindT
	for _, b := range bindings {
		got = append(got, bindT{b.Signal, b.Guard.Name, b.Guard.Limit, b.Guard.Raises})
	}

	want := []bindT{
		{syscall.SIGINT, "A", 3, []syscall.Signal{syscall.SIGINT, syscall.SIGCONT}},
		{syscall.SIGCONT, "B", 3, []syscall.Signal{syscall.SIGINT, syscall.SIGCONT}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}

	seeds, err := cfg.SeedSignals()
	if err != nil {
		t.Fatalf("SeedSignals: %v", err)
	}
	if diff := cmp.Diff([]syscall.Signal{syscall.SIGINT, syscall.SIGCONT}, seeds); diff != "" {
		t.Fatalf("seeds mismatch (-want +got):\n%s", diff)
	}
}

func TestBindingsOverrides(t *testing.T) {
	data := `limit: 2
handlers:
  - signal: usr1
    raises: [USR1]
    limit: 9
  - name: H
    signal: "1"
`
	cfg, err := config.LoadConfigFromBytes(data)
	if err != nil {
		t.Fatalf("LoadConfigFromBytes: %v", err)
	}
	bindings, err := cfg.Bindings()
	if err != nil {
		t.Fatalf("Bindings: %v", err)
	}
	if bindings[0].Guard.Name != "SIGUSR1" || bindings[0].Guard.Limit != 9 {
		t.Errorf("unexpected first binding: %+v", bindings[0].Guard)
	}
	if bindings[1].Signal != syscall.SIGHUP || bindings[1].Guard.Limit != 2 {
		t.Errorf("unexpected second binding: %v %+v", bindings[1].Signal, bindings[1].Guard)
	}

	cfg.Handlers[0].Raises = []string{"SIGNOPE"}
	if _, err := cfg.Bindings(); !errors.Is(err, config.ErrSignal) {
		t.Errorf("expected ErrSignal, got %v", err)
	}
}

func TestParseSignal(t *testing.T) {
	testCases := []struct {
		in   string
		want syscall.Signal
		err  bool
	}{
		{in: "SIGINT", want: syscall.SIGINT},
		{in: "cont", want: syscall.SIGCONT},
		{in: " TERM ", want: syscall.SIGTERM},
		{in: "10", want: syscall.Signal(10)},
		{in: "SIGBOGUS", err: true},
		{in: "999", err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := config.ParseSignal(tc.in)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSignal(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseSignal(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	if config.SignalName(syscall.SIGCONT) != "SIGCONT" {
		t.Errorf("unexpected name %q", config.SignalName(syscall.SIGCONT))
	}
}

func TestBindingsLimit(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "missing global", data: "handlers:\n  - name: A\n    signal: SIGINT\n"},
		{name: "zero global", data: "limit: 0\nhandlers:\n  - name: A\n    signal: SIGINT\n"},
		{name: "negative global", data: "limit: -2\nhandlers:\n  - name: A\n    signal: SIGINT\n"},
		{name: "negative handler", data: "limit: 3\nhandlers:\n  - name: A\n    signal: SIGINT\n    limit: -1\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.LoadConfigFromBytes(tc.data)
			if err != nil {
				t.Fatalf("LoadConfigFromBytes: %v", err)
			}
			if _, err := cfg.Bindings(); !errors.Is(err, config.ErrLimit) {
				t.Fatalf("expected ErrLimit, got %v", err)
			}
		})
	}
}
