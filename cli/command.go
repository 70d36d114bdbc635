package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/llm-bridge/config"
	"github.com/grovetools/llm-bridge/logging"
)

// CommandOptions holds the flags every llm-bridge command accepts.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a command with the standard persistent flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to llm-bridge config file (.toml, .yml)")

	SetStyledHelp(cmd)

	return cmd
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the configuration selected by --config (or the default
// file) and installs its logging section. --verbose raises the level to
// debug.
func LoadConfig(cmd *cobra.Command) (*config.Config, config.ConfigSource, error) {
	opts := GetOptions(cmd)
	cfg, source, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, "", err
	}
	if opts.Verbose {
		cfg.Logging.Level = logrus.DebugLevel.String()
	}
	logging.Configure(cfg.Logging)
	return cfg, source, nil
}

// GetLogger returns the named component logger after LoadConfig ran.
func GetLogger(component string) *logrus.Entry {
	return logging.NewLogger(component)
}
