package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/llm-bridge/logging"
	"github.com/grovetools/llm-bridge/pkg/hooks"
)

func NewHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Install or remove the agent hooks",
	}

	var settingsPath string
	cmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Agent settings file (default ~/.claude/settings.json)")

	resolve := func() (string, error) {
		if settingsPath != "" {
			return settingsPath, nil
		}
		return hooks.SettingsPath()
	}

	var installDryRun bool
	install := &cobra.Command{
		Use:   "install",
		Short: "Add the bridge hooks and status line to the agent settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			binary, err := os.Executable()
			if err != nil {
				binary = "llm-bridge"
			}
			res, err := hooks.Install(path, binary, installDryRun)
			if err != nil {
				return err
			}
			return reportHooks(cmd, res, "Hooks installed")
		},
	}
	install.Flags().BoolVar(&installDryRun, "dry-run", false, "Print the result without writing the file")

	var uninstallDryRun bool
	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the bridge hooks and status line from the agent settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			res, err := hooks.Uninstall(path, uninstallDryRun)
			if err != nil {
				return err
			}
			if !res.Changed {
				logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).InfoPretty("No llm-bridge hooks found in " + path)
				return nil
			}
			return reportHooks(cmd, res, "Hooks removed")
		},
	}
	uninstall.Flags().BoolVar(&uninstallDryRun, "dry-run", false, "Print the result without writing the file")

	cmd.AddCommand(install, uninstall)
	return cmd
}

func reportHooks(cmd *cobra.Command, res *hooks.Result, done string) error {
	pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
	if res.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would write to %s:\n%s", res.Path, res.Content)
		return nil
	}
	pretty.Success(done)
	pretty.Path("Settings", res.Path)
	if res.Removed > 0 {
		pretty.Field("Replaced entries", res.Removed)
	}
	return nil
}
