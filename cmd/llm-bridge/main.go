package main

import (
	"os"

	"github.com/grovetools/llm-bridge/cli"
	"github.com/grovetools/llm-bridge/cmd"
	"github.com/grovetools/llm-bridge/pkg/profiling"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"llm-bridge",
		"Bridge LLM coding agents to the Waybar status bar",
	)

	profiling.NewCobraProfiler("profiling", cli.GetLogger).Attach(rootCmd)

	rootCmd.AddCommand(cmd.NewEventCmd())
	rootCmd.AddCommand(cmd.NewStatuslineCmd())
	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewDaemonCmd())
	rootCmd.AddCommand(cmd.NewAggregateCmd())
	rootCmd.AddCommand(cmd.NewHooksCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewPathsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
