package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prequel-dev/sigcascade/internal/pkg/cascade"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

var (
	ErrSignal   = errors.New("unknown signal")
	ErrHandlers = errors.New("no handlers configured")
	ErrLimit    = errors.New("limit must be positive")
	ErrNoSeeds  = errors.New("no seed signals configured")
)

var (
	DefaultConfig = `policy: nested
limit: 3
maxDepth: 64
settle: 200ms # kernel policy only
retries: 3    # kill(2) attempts on EINTR/EAGAIN
handlers:
  - name: A
    signal: SIGINT
    raises: [SIGINT, SIGCONT]
  - name: B
    signal: SIGCONT
    raises: [SIGINT, SIGCONT]
seeds: [SIGINT, SIGCONT]
`
)

type Config struct {
	Policy   string        `yaml:"policy"`
	Limit    int64         `yaml:"limit"`
	MaxDepth int           `yaml:"maxDepth"`
	Settle   time.Duration `yaml:"settle"`
	Retries  uint          `yaml:"retries"`
	Handlers []Handler     `yaml:"handlers"`
	Seeds    []string      `yaml:"seeds"`
}

type Handler struct {
	Name   string   `yaml:"name"`
	Signal string   `yaml:"signal"`
	Raises []string `yaml:"raises"`
	Limit  int64    `yaml:"limit,omitempty"`
}

// Binding pairs a guard with the signal that triggers it.
type Binding struct {
	Signal syscall.Signal
	Guard  *cascade.Guard
}

type OptT func(*Config)

func WithPolicy(p string) OptT {
	return func(c *Config) {
		c.Policy = p
	}
}

func WithLimit(n int64) OptT {
	return func(c *Config) {
		c.Limit = n
	}
}

func WithSettle(d time.Duration) OptT {
	return func(c *Config) {
		c.Settle = d
	}
}

// Marshal renders the default config with opts applied.
func Marshal(opts ...OptT) string {
	c, err := LoadConfigFromBytes(DefaultConfig)
	if err != nil {
		return DefaultConfig
	}

	for _, opt := range opts {
		opt(c)
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		return DefaultConfig
	}

	return string(out)
}

// LoadConfig reads dir/file, writing a default config there first if it does
// not exist. Options only shape the written default.
func LoadConfig(dir, file string, opts ...OptT) (*Config, error) {

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(dir, file)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(path, opts...); err != nil {
			log.Error().Err(err).Msg("Failed to write default config")
			return nil, err
		}
	}

	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfigFromBytes(string(data))
}

func WriteDefaultConfig(path string, opts ...OptT) error {
	data := DefaultConfig
	if len(opts) > 0 {
		data = Marshal(opts...)
	}
	return os.WriteFile(path, []byte(data), 0644)
}

func LoadConfigFromBytes(data string) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(data), &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) DispatcherOpts() ([]cascade.OptT, error) {
	var opts []cascade.OptT

	if c.Policy != "" {
		p, err := cascade.ParsePolicy(c.Policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cascade.WithPolicy(p))
	}

	if c.MaxDepth > 0 {
		opts = append(opts, cascade.WithMaxDepth(c.MaxDepth))
	}
	if c.Settle > 0 {
		opts = append(opts, cascade.WithSettle(c.Settle))
	}
	if c.Retries > 0 {
		opts = append(opts, cascade.WithRetries(c.Retries))
	}

	return opts, nil
}

// Bindings builds one guard per configured handler. A per-handler limit
// overrides the global one; the resolved limit must be positive.
func (c *Config) Bindings() ([]Binding, error) {
	if len(c.Handlers) == 0 {
		return nil, ErrHandlers
	}

	bindings := make([]Binding, 0, len(c.Handlers))

	for _, h := range c.Handlers {
		sig, err := ParseSignal(h.Signal)
		if err != nil {
			return nil, fmt.Errorf("handler %q: %w", h.Name, err)
		}

		raises, err := ParseSignals(h.Raises)
		if err != nil {
			return nil, fmt.Errorf("handler %q: %w", h.Name, err)
		}

		limit := c.Limit
		if h.Limit != 0 {
			limit = h.Limit
		}
		if limit <= 0 {
			return nil, fmt.Errorf("handler %q: %w: %d", h.Name, ErrLimit, limit)
		}

		name := h.Name
		if name == "" {
			name = SignalName(sig)
		}

		bindings = append(bindings, Binding{
			Signal: sig,
			Guard:  cascade.NewGuard(name, limit, raises...),
		})
	}

	return bindings, nil
}

func (c *Config) SeedSignals() ([]syscall.Signal, error) {
	return ParseSignals(c.Seeds)
}

func ParseSignals(names []string) ([]syscall.Signal, error) {
	sigs := make([]syscall.Signal, 0, len(names))
	for _, n := range names {
		sig, err := ParseSignal(n)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// ParseSignal accepts "SIGINT", "INT", "int" or a signal number.
func ParseSignal(name string) (syscall.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))

	if num, err := strconv.Atoi(n); err == nil {
		if unix.SignalName(syscall.Signal(num)) == "" {
			return 0, fmt.Errorf("%w: %s", ErrSignal, name)
		}
		return syscall.Signal(num), nil
	}

	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}

	sig := unix.SignalNum(n)
	if sig == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSignal, name)
	}

	return sig, nil
}

func SignalName(sig syscall.Signal) string {
	if n := unix.SignalName(sig); n != "" {
		return n
	}
	return strconv.Itoa(int(sig))
}
