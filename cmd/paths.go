package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/llm-bridge/cli"
	"github.com/grovetools/llm-bridge/pkg/paths"
)

// PathsOutput lists the files and directories llm-bridge uses.
type PathsOutput struct {
	ConfigDir   string `json:"config_dir"`
	StateDir    string `json:"state_dir"`
	LogDir      string `json:"log_dir"`
	StatePath   string `json:"state_path"`
	SessionsDir string `json:"sessions_dir"`
	SocketPath  string `json:"socket_path"`
	PidFile     string `json:"pid_file"`
}

func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by llm-bridge as JSON",
		Long: `Print the paths used by llm-bridge as JSON. Snapshot, sessions and
socket paths reflect the config file and LLM_BRIDGE_* overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			output := PathsOutput{
				ConfigDir:   paths.ConfigDir(),
				StateDir:    paths.StateDir(),
				LogDir:      paths.LogDir(),
				StatePath:   cfg.StatePath,
				SessionsDir: cfg.SessionsDir,
				SocketPath:  cfg.SocketPath,
				PidFile:     paths.PidFilePath(),
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}
}
