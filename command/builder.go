package command

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

const (
	// DefaultTimeout bounds helper processes spawned on the hot path.
	DefaultTimeout = 500 * time.Millisecond

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Second
)

var processNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)

// SafeBuilder builds short-lived helper commands with validated arguments.
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators: map[string]func(string) error{
			"processName": validateProcessName,
		},
		executor: exec,
	}
}

// validateProcessName rejects names pgrep would treat as a pattern or flag.
// Linux truncates comm to 15 bytes, so longer names never match exactly.
func validateProcessName(name string) error {
	if name == "" {
		return fmt.Errorf("process name cannot be empty")
	}
	if !processNameRegex.MatchString(name) {
		return fmt.Errorf("invalid process name: %s", name)
	}
	if len(name) > 15 {
		return fmt.Errorf("process name too long: %s (max 15 characters)", name)
	}
	return nil
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}
	return validator(value)
}

// Command is a helper invocation bound to a timeout.
type Command struct {
	name     string
	args     []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command using the builder's default timeout.
func (sb *SafeBuilder) Build(name string, args ...string) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}
	return &Command{
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	c.timeout = timeout
	return c
}

// Output runs the command and returns its stdout. The process is killed
// when the timeout or ctx expires.
func (c *Command) Output(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cmd := c.executor.CommandContext(ctx, c.name, c.args...) //nolint:gosec // arguments validated by SafeBuilder
	cmd.WaitDelay = 100 * time.Millisecond
	return cmd.Output()
}
