package config

import "time"

// Config is the llm-bridge configuration.
type Config struct {
	StatePath   string        `yaml:"state_path,omitempty" jsonschema:"description=Primary snapshot file read by the status bar"`
	SessionsDir string        `yaml:"sessions_dir,omitempty" jsonschema:"description=Directory holding one snapshot per agent session"`
	SocketPath  string        `yaml:"socket_path,omitempty" jsonschema:"description=Datagram socket the daemon listens on"`
	Signal      int           `yaml:"signal,omitempty" jsonschema:"minimum=1,maximum=30,description=Real-time signal offset (SIGRTMIN+N) sent to the renderer"`
	SignalBase  int           `yaml:"signal_base,omitempty" jsonschema:"minimum=32,maximum=63,description=SIGRTMIN as seen by the renderer's libc (34 for glibc; 35 for musl)"`
	Format      string        `yaml:"format,omitempty" jsonschema:"description=Display text template"`
	Renderer    string        `yaml:"renderer,omitempty" jsonschema:"description=Process name of the status bar to notify"`
	Timing      TimingConfig  `yaml:"timing,omitempty" jsonschema:"description=Debounce and persistence timings"`
	Logging     LoggingConfig `yaml:"logging,omitempty" jsonschema:"description=Logging configuration"`
}

// TimingConfig holds the scheduler and persistence windows.
type TimingConfig struct {
	DebounceMs             int `yaml:"debounce_ms,omitempty" jsonschema:"minimum=1,description=Quiet window before a refresh signal fires"`
	MaxDebounceMs          int `yaml:"max_debounce_ms,omitempty" jsonschema:"minimum=1,description=Upper bound on signal latency during a burst"`
	FlushMs                int `yaml:"flush_ms,omitempty" jsonschema:"minimum=1,description=Minimum interval between snapshot writes"`
	StaleSeconds           int `yaml:"stale_seconds,omitempty" jsonschema:"minimum=1,description=Age after which a session is ignored and swept"`
	ActivityTimeoutSeconds int `yaml:"activity_timeout_seconds,omitempty" jsonschema:"minimum=1,description=Age after which a non-idle activity reads as Idle"`
	SweepSeconds           int `yaml:"sweep_seconds,omitempty" jsonschema:"minimum=1,description=Interval of the stale session sweep"`
}

// LoggingConfig controls the logrus setup.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error,description=Minimum log level"`
	ReportCaller bool   `yaml:"report_caller,omitempty" jsonschema:"description=Include file and line in log entries"`
	File         string `yaml:"file,omitempty" jsonschema:"description=Log file path (defaults to the state log directory)"`
	Format       string `yaml:"format,omitempty" jsonschema:"enum=default,enum=simple,enum=json,description=Formatter preset"`
	Stderr       string `yaml:"stderr,omitempty" jsonschema:"enum=auto,enum=always,enum=never,description=When to mirror logs to stderr"`
}

func (t TimingConfig) Debounce() time.Duration {
	return time.Duration(t.DebounceMs) * time.Millisecond
}

func (t TimingConfig) MaxDebounce() time.Duration {
	return time.Duration(t.MaxDebounceMs) * time.Millisecond
}

func (t TimingConfig) Flush() time.Duration {
	return time.Duration(t.FlushMs) * time.Millisecond
}

func (t TimingConfig) Stale() time.Duration {
	return time.Duration(t.StaleSeconds) * time.Second
}

func (t TimingConfig) ActivityTimeout() time.Duration {
	return time.Duration(t.ActivityTimeoutSeconds) * time.Second
}

func (t TimingConfig) Sweep() time.Duration {
	return time.Duration(t.SweepSeconds) * time.Second
}

// ConfigSource identifies the origin of the loaded configuration.
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceFile    ConfigSource = "file"
)
