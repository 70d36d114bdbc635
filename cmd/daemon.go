package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/llm-bridge/cli"
	"github.com/grovetools/llm-bridge/internal/daemon/engine"
	"github.com/grovetools/llm-bridge/internal/daemon/pidfile"
	"github.com/grovetools/llm-bridge/internal/daemon/server"
	"github.com/grovetools/llm-bridge/internal/daemon/store"
	"github.com/grovetools/llm-bridge/pkg/aggregate"
	"github.com/grovetools/llm-bridge/pkg/paths"
	"github.com/grovetools/llm-bridge/pkg/process"
)

// NewDaemonCmd returns the daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run and manage the bridge daemon",
		Long: `The daemon receives hook messages on a datagram socket, keeps the
state in memory, writes snapshots at most every flush interval and
debounces refresh signals to the status bar.`,
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())
	cmd.AddCommand(newDaemonLogsCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	var sessions bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := cli.GetLogger("daemon")
			pidPath := paths.PidFilePath()

			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			mode := store.ModeSingle
			if sessions {
				mode = store.ModeSessions
			}
			st := store.New(storeOptions(cfg, mode))
			if err := st.Load(time.Now()); err != nil {
				return err
			}

			listener, err := server.Listen(cfg.SocketPath, logger)
			if err != nil {
				return err
			}
			defer listener.Close()

			eng := engine.New(st, listener, newLocator(cfg), engine.Options{
				Debounce:    cfg.Timing.Debounce(),
				MaxDebounce: cfg.Timing.MaxDebounce(),
				Flush:       cfg.Timing.Flush(),
				Sweep:       cfg.Timing.Sweep(),
			}, logger)
			if sessions {
				eng.WithSweeper(aggregate.New(cfg.SessionsDir, cfg.Timing.Stale(), cfg.Timing.ActivityTimeout()).WithFormat(cfg.Format))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.WithField("pid", os.Getpid()).
				WithField("config", source).
				WithField("state", cfg.StatePath).
				Info("Starting daemon")
			return eng.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&sessions, "sessions", false, "Keep one record per agent session and publish their aggregate")
	return cmd
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			if err := process.Terminate(pid); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

type daemonStatus struct {
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Socket  string `json:"socket"`
	State   string `json:"state"`
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			status := daemonStatus{Running: running, Socket: cfg.SocketPath, State: cfg.StatePath}
			if running {
				status.PID = pid
			}

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if running {
				fmt.Fprintf(cmd.OutOrStdout(), "Running (PID: %d)\nSocket: %s\n", pid, cfg.SocketPath)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
			}
			if !running {
				os.Exit(1) // non-zero for scripts
			}
			return nil
		},
	}
}
