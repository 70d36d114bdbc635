package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/llm-bridge/errors"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short line untouched", "hello world", 20, "hello world"},
		{"wraps on words", "one two three four", 9, "one two\nthree\nfour"},
		{"keeps paragraphs", "a\nb", 10, "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.in, tt.width))
		})
	}
}

func TestParseDescription(t *testing.T) {
	desc, ex := parseDescription("Does things.\n\nExamples:\n  llm-bridge status\n")
	assert.Equal(t, "Does things.", desc)
	assert.Equal(t, "llm-bridge status", ex)

	desc, ex = parseDescription("Only text")
	assert.Equal(t, "Only text", desc)
	assert.Empty(t, ex)
}

func TestStandardCommandFlagsAndHelp(t *testing.T) {
	root := NewStandardCommand("llm-bridge", "Status bar bridge")
	root.AddCommand(&cobra.Command{Use: "status", Short: "Show the snapshot", Run: func(*cobra.Command, []string) {}})

	require.NoError(t, root.ParseFlags([]string{"-v", "--json", "-c", "/tmp/x.toml"}))
	opts := GetOptions(root)
	assert.Equal(t, CommandOptions{ConfigFile: "/tmp/x.toml", Verbose: true, JSONOutput: true}, opts)

	var buf bytes.Buffer
	renderHelp(&buf, root, 60)
	out := buf.String()
	assert.Contains(t, out, "LLM-BRIDGE")
	assert.Contains(t, out, "status")
	assert.Contains(t, out, "Show the snapshot")
}

func TestErrorHandlerMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config not found", errors.ConfigNotFound("/x.toml"), "Configuration file not found: /x.toml"},
		{"daemon running", fmt.Errorf("start: %w", errors.DaemonRunning(42)), "already running (PID 42)"},
		{"validation", errors.New(errors.ErrCodeConfigValidation, "signal out of range"), "Invalid configuration"},
		{"plain", fmt.Errorf("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &ErrorHandler{Out: &buf}
			assert.Equal(t, tt.err, h.Handle(tt.err))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &buf}
	_ = h.Handle(errors.ProcessNotFound("waybar"))
	assert.True(t, strings.Contains(buf.String(), "PROCESS_NOT_FOUND"))
}
