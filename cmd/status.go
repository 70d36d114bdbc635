package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/llm-bridge/cli"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current snapshot as Waybar JSON",
		Long: `Print the primary snapshot as one line of JSON, the format Waybar's
custom module expects from its exec command.

Examples:
  # waybar config: "exec": "llm-bridge status", "return-type": "json", "signal": 8
  llm-bridge status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := snapshot.ReadOrDefault(cfg.StatePath, time.Now(), cfg.Timing.ActivityTimeout(), cfg.Format)
			if err != nil {
				cli.GetLogger("status").WithError(err).Warn("Snapshot unreadable, showing defaults")
				st = snapshot.Default()
			}
			data, err := json.Marshal(st)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
