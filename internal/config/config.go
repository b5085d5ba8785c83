// Package config loads persistent daemon configuration from
// ~/.keygate/config.yaml. A missing file yields the defaults, so a fresh
// install runs without any setup beyond granting device access.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration.
type Config struct {
	// Device is the evdev device path to grab. Empty selects the first
	// keyboard-capable device found under /dev/input.
	Device string `yaml:"device,omitempty"`

	// Layout is the keymap file path.
	Layout string `yaml:"layout,omitempty"`

	// Socket is the unix socket path for the control API.
	Socket string `yaml:"socket,omitempty"`

	// AuditLog is the append-only audit log path.
	AuditLog string `yaml:"audit_log,omitempty"`

	Typing  Typing  `yaml:"typing,omitempty"`
	Secrets Secrets `yaml:"secrets,omitempty"`
	TapHold TapHold `yaml:"tap_hold,omitempty"`
	VDesk   VDesk   `yaml:"vdesk,omitempty"`
	Trace   Trace   `yaml:"trace,omitempty"`

	SentenceCase SentenceCase `yaml:"sentence_case,omitempty"`
}

// Typing paces synthetic keystrokes so fast hosts do not drop them.
type Typing struct {
	Interval Duration `yaml:"interval,omitempty"`
}

// Secrets configures the gate and the secret store.
type Secrets struct {
	// Order lists store entry names by dense index; secret:N bindings in
	// the layout resolve against this list.
	Order []string `yaml:"order,omitempty"`

	// PINKey is the store entry holding the unlock PIN.
	PINKey string `yaml:"pin_key,omitempty"`

	LockTimeout  Duration `yaml:"lock_timeout,omitempty"`
	MaxPINLength int      `yaml:"max_pin_length,omitempty"`
}

// TapHold configures tap-hold resolution.
type TapHold struct {
	Term Duration `yaml:"term,omitempty"`
}

// VDesk configures virtual desktop tracking.
type VDesk struct {
	Max       int    `yaml:"max,omitempty"`
	StateFile string `yaml:"state_file,omitempty"`
}

// Trace configures the in-memory dispatch trace.
type Trace struct {
	Size int `yaml:"size,omitempty"`
}

// SentenceCase configures automatic sentence capitalization.
type SentenceCase struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling from strings like "5m", "200ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// Dir returns the keygate state directory: ~/.keygate.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".keygate")
}

// DefaultPath returns the default config file path: ~/.keygate/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist, it
// returns the defaults and no error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// expandHome rewrites a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

func (c *Config) applyDefaults() {
	c.Device = expandHome(c.Device)
	c.Layout = expandHome(c.Layout)
	c.Socket = expandHome(c.Socket)
	c.AuditLog = expandHome(c.AuditLog)
	c.VDesk.StateFile = expandHome(c.VDesk.StateFile)

	dir := Dir()
	if c.Layout == "" {
		c.Layout = filepath.Join(dir, "layout.yaml")
	}
	if c.Socket == "" {
		c.Socket = filepath.Join(dir, "keygate.sock")
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(dir, "audit.log")
	}
	if c.Typing.Interval.Duration == 0 {
		c.Typing.Interval.Duration = time.Millisecond
	}
	if c.Secrets.PINKey == "" {
		c.Secrets.PINKey = "pin"
	}
	if c.Secrets.LockTimeout.Duration == 0 {
		c.Secrets.LockTimeout.Duration = 5 * time.Minute
	}
	if c.Secrets.MaxPINLength == 0 {
		c.Secrets.MaxPINLength = 32
	}
	if c.TapHold.Term.Duration == 0 {
		c.TapHold.Term.Duration = 200 * time.Millisecond
	}
	if c.VDesk.Max == 0 {
		c.VDesk.Max = 9
	}
	if c.VDesk.StateFile == "" {
		c.VDesk.StateFile = filepath.Join(dir, "vdesk")
	}
	if c.Trace.Size == 0 {
		c.Trace.Size = 256
	}
}

// Validate checks that the configuration is well-formed.
func (c *Config) Validate() error {
	if c.Typing.Interval.Duration < 0 {
		return fmt.Errorf("typing.interval must not be negative")
	}
	if c.Secrets.LockTimeout.Duration <= 0 {
		return fmt.Errorf("secrets.lock_timeout must be positive")
	}
	if c.Secrets.MaxPINLength < 1 {
		return fmt.Errorf("secrets.max_pin_length must be at least 1")
	}
	if c.TapHold.Term.Duration <= 0 {
		return fmt.Errorf("tap_hold.term must be positive")
	}
	if c.VDesk.Max < 1 {
		return fmt.Errorf("vdesk.max must be at least 1")
	}
	if c.Trace.Size < 1 {
		return fmt.Errorf("trace.size must be at least 1")
	}
	seen := map[string]bool{}
	for _, name := range c.Secrets.Order {
		if name == "" {
			return fmt.Errorf("secrets.order contains an empty name")
		}
		if seen[name] {
			return fmt.Errorf("secrets.order lists %q twice", name)
		}
		seen[name] = true
	}
	return nil
}
