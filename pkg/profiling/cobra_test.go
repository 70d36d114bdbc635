package profiling

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerWritesProfilesAndTiming(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)

	root := &cobra.Command{Use: "llm-bridge"}
	ran := false
	root.AddCommand(&cobra.Command{
		Use: "event",
		Run: func(cmd *cobra.Command, args []string) { ran = true },
	})
	NewCobraProfiler("profiling", func(string) *logrus.Entry { return logrus.NewEntry(logger) }).Attach(root)

	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")
	root.SetArgs([]string{"event", "--cpu-profile", cpu, "--mem-profile", mem, "--timing"})
	require.NoError(t, root.Execute())

	assert.True(t, ran)
	for _, path := range []string{cpu, mem} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size(), path)
	}
	assert.Contains(t, logs.String(), "Command finished")
	assert.Contains(t, logs.String(), "llm-bridge event")
}

func TestProfilerBadCPUPath(t *testing.T) {
	root := &cobra.Command{Use: "llm-bridge", Run: func(*cobra.Command, []string) {}}
	root.SilenceErrors, root.SilenceUsage = true, true
	NewCobraProfiler("profiling", func(string) *logrus.Entry { return logrus.NewEntry(logrus.New()) }).Attach(root)

	root.SetArgs([]string{"--cpu-profile", filepath.Join(t.TempDir(), "missing", "cpu.prof")})
	assert.Error(t, root.Execute())
}
