package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/pkg/paths"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
	"github.com/grovetools/llm-bridge/util/pathutil"
)

const (
	DefaultSignal     = 8
	// SIGRTMIN under glibc. musl reserves one more and starts at 35.
	DefaultSignalBase = 34
	DefaultFormat     = snapshot.DefaultFormat
	DefaultRenderer   = "waybar"

	maxSignalOffset = 30
	minSignalBase   = 32
	maxSignalNumber = 64
)

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		StatePath:   paths.StatePath(),
		SessionsDir: paths.SessionsDir(),
		SocketPath:  paths.SocketPath(),
		Signal:      DefaultSignal,
		SignalBase:  DefaultSignalBase,
		Format:      DefaultFormat,
		Renderer:    DefaultRenderer,
		Timing: TimingConfig{
			DebounceMs:             16,
			MaxDebounceMs:          50,
			FlushMs:                100,
			StaleSeconds:           300,
			ActivityTimeoutSeconds: 60,
			SweepSeconds:           60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "default",
			Stderr: "auto",
		},
	}
}

// ApplyEnv overrides fields from LLM_BRIDGE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LLM_BRIDGE_STATE_PATH"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("LLM_BRIDGE_SESSIONS_DIR"); v != "" {
		c.SessionsDir = v
	}
	if v := os.Getenv("LLM_BRIDGE_SOCKET_PATH"); v != "" {
		c.SocketPath = v
	}
	if v := os.Getenv("LLM_BRIDGE_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("LLM_BRIDGE_SIGNAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "LLM_BRIDGE_SIGNAL must be an integer").
				WithDetail("value", v)
		}
		c.Signal = n
	}
	if v := os.Getenv("LLM_BRIDGE_SIGNAL_BASE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "LLM_BRIDGE_SIGNAL_BASE must be an integer").
				WithDetail("value", v)
		}
		c.SignalBase = n
	}
	return nil
}

// expandPaths resolves ~ and environment references in the path fields.
// Empty fields are left for Validate to reject.
func (c *Config) expandPaths() error {
	for _, field := range []*string{&c.StatePath, &c.SessionsDir, &c.SocketPath, &c.Logging.File} {
		if *field == "" {
			continue
		}
		expanded, err := pathutil.Expand(*field)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to expand path").
				WithDetail("path", *field)
		}
		*field = expanded
	}
	return nil
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Signal < 1 || c.Signal > maxSignalOffset {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("signal must be between 1 and %d, got %d", maxSignalOffset, c.Signal)).
			WithDetail("signal", c.Signal)
	}
	if c.SignalBase < minSignalBase || c.SignalBase+c.Signal > maxSignalNumber {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("signal_base+signal must land in %d..%d, got %d+%d", minSignalBase, maxSignalNumber, c.SignalBase, c.Signal)).
			WithDetail("signal_base", c.SignalBase)
	}
	if c.StatePath == "" {
		return errors.New(errors.ErrCodeConfigValidation, "state_path cannot be empty")
	}
	if c.SessionsDir == "" {
		return errors.New(errors.ErrCodeConfigValidation, "sessions_dir cannot be empty")
	}
	if c.SocketPath == "" {
		return errors.New(errors.ErrCodeConfigValidation, "socket_path cannot be empty")
	}

	t := c.Timing
	durations := []struct {
		name  string
		value int
	}{
		{"timing.debounce_ms", t.DebounceMs},
		{"timing.max_debounce_ms", t.MaxDebounceMs},
		{"timing.flush_ms", t.FlushMs},
		{"timing.stale_seconds", t.StaleSeconds},
		{"timing.activity_timeout_seconds", t.ActivityTimeoutSeconds},
		{"timing.sweep_seconds", t.SweepSeconds},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("%s must be positive", d.name)).
				WithDetail("field", d.name)
		}
	}
	if t.MaxDebounceMs < t.DebounceMs {
		return errors.New(errors.ErrCodeConfigValidation, "timing.max_debounce_ms must not be smaller than timing.debounce_ms")
	}
	return nil
}
