package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/llm-bridge/cli"
	"github.com/grovetools/llm-bridge/pkg/logging/logutil"
	"github.com/grovetools/llm-bridge/pkg/paths"
)

var componentLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

// TailedLine is one log line and the component file it came from.
type TailedLine struct {
	Component string
	Line      string
}

func newDaemonLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show today's daemon logs",
		Long: `Show today's log files, or the most recent one when nothing was logged
today. Each component (daemon, store, notify, ...)
writes its own file under the state directory.

Examples:
  # Last 50 lines of every component
  llm-bridge daemon logs

  # Follow new entries
  llm-bridge daemon logs -f`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := cli.LoadConfig(cmd); err != nil {
				return err
			}
			files, err := logutil.FindLogFiles(time.Now())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No log files in %s\n", paths.LogDir())
				return nil
			}

			out := cmd.OutOrStdout()
			for _, f := range files {
				last, err := logutil.LastLines(f, lines)
				if err != nil {
					return err
				}
				for _, line := range last {
					printLine(out, TailedLine{Component: logutil.Component(f), Line: line})
				}
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return followFiles(ctx, files, out)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show from the end of each file")
	return cmd
}

func followFiles(ctx context.Context, files []string, out io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)
	lineCh := make(chan TailedLine, 64)

	for _, path := range files {
		g.Go(func() error {
			t, err := tail.TailFile(path, tail.Config{
				Follow:   true,
				ReOpen:   true,
				Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
				Logger:   tail.DiscardingLogger,
			})
			if err != nil {
				return fmt.Errorf("cannot tail %s: %w", path, err)
			}
			defer t.Cleanup()
			go func() {
				<-gctx.Done()
				_ = t.Stop()
			}()
			for line := range t.Lines {
				if line.Err != nil {
					continue
				}
				select {
				case lineCh <- TailedLine{Component: logutil.Component(path), Line: line.Text}:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(lineCh)
	}()
	for l := range lineCh {
		printLine(out, l)
	}
	return g.Wait()
}

func printLine(w io.Writer, l TailedLine) {
	fmt.Fprintf(w, "%s %s\n", componentLabel.Render(fmt.Sprintf("[%s]", l.Component)), l.Line)
}
