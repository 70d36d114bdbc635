package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grovetools/llm-bridge/cli"
	"github.com/grovetools/llm-bridge/internal/daemon/collector"
	"github.com/grovetools/llm-bridge/internal/daemon/engine"
	"github.com/grovetools/llm-bridge/pkg/aggregate"
)

func NewAggregateCmd() *cobra.Command {
	var sessionsDir string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Watch the sessions directory and publish the multi-session summary",
		Long: `Watch the per-session snapshot files and keep the primary snapshot equal
to their aggregate: per-activity counts, total cost and one tooltip line per
session. Stale session files are swept periodically.

Use this when hooks run without a daemon and several agents write session
files; 'daemon start --sessions' does the same from memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if sessionsDir != "" {
				cfg.SessionsDir = sessionsDir
			}
			logger := cli.GetLogger("aggregate")

			agg := aggregate.New(cfg.SessionsDir, cfg.Timing.Stale(), cfg.Timing.ActivityTimeout()).WithFormat(cfg.Format)
			eng := engine.NewAggregateEngine(agg, cfg.StatePath, newLocator(cfg), logger)
			eng.Register(collector.NewWatchCollector(cfg.SessionsDir, 0))
			eng.Register(collector.NewSweepCollector(cfg.Timing.Sweep()))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.WithField("dir", cfg.SessionsDir).Info("Aggregating sessions")
			return eng.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&sessionsDir, "sessions-dir", "", "Sessions directory (default from config)")
	return cmd
}
