// Package profiling adds pprof and wall-clock timing flags to a cobra tree.
// Hooks run on every agent event, so their latency is worth measuring.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CobraProfiler holds profiling state and flag values for one command run.
type CobraProfiler struct {
	cpuProfileFile *os.File
	cpuProfilePath string
	memProfilePath string
	timing         bool
	start          time.Time
	component      string
	loggerFor      func(component string) *logrus.Entry
}

// NewCobraProfiler creates a profiler that reports through the component
// logger returned by loggerFor. The logger is resolved after the command
// ran so it picks up the loaded logging config.
func NewCobraProfiler(component string, loggerFor func(string) *logrus.Entry) *CobraProfiler {
	return &CobraProfiler{component: component, loggerFor: loggerFor}
}

// AddFlags adds the profiling flags to cmd.
func (p *CobraProfiler) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&p.cpuProfilePath, "cpu-profile", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&p.memProfilePath, "mem-profile", "", "Write memory profile to file")
	cmd.PersistentFlags().BoolVar(&p.timing, "timing", false, "Log the command's wall-clock time on exit")
}

// Attach installs PreRun and PostRun as the persistent hooks of cmd.
func (p *CobraProfiler) Attach(cmd *cobra.Command) {
	p.AddFlags(cmd)
	cmd.PersistentPreRunE = p.PreRun
	cmd.PersistentPostRun = p.PostRun
}

// PreRun starts CPU profiling and the timer.
func (p *CobraProfiler) PreRun(cmd *cobra.Command, args []string) error {
	p.start = time.Now()

	if p.cpuProfilePath != "" {
		f, err := os.Create(p.cpuProfilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		p.cpuProfileFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			p.cpuProfileFile = nil
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
	}
	return nil
}

// PostRun writes the profiles and logs the elapsed time.
func (p *CobraProfiler) PostRun(cmd *cobra.Command, args []string) {
	logger := p.loggerFor(p.component)

	if p.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		p.cpuProfileFile.Close()
		p.cpuProfileFile = nil
		logger.WithField("path", p.cpuProfilePath).Info("CPU profile written")
	}

	if p.memProfilePath != "" {
		if err := p.writeHeapProfile(); err != nil {
			logger.WithError(err).Warn("Could not write memory profile")
		} else {
			logger.WithField("path", p.memProfilePath).Info("Memory profile written")
		}
	}

	if p.timing {
		logger.WithFields(logrus.Fields{
			"command": cmd.CommandPath(),
			"elapsed": time.Since(p.start).String(),
		}).Info("Command finished")
	}
}

func (p *CobraProfiler) writeHeapProfile() error {
	f, err := os.Create(p.memProfilePath)
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC() // up-to-date statistics
	return pprof.WriteHeapProfile(f)
}
