package cmd

import (
	"fmt"

	"github.com/bnema/waytile/internal/config"
	"github.com/bnema/waytile/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "waytile",
		Short: "waytile - tiling layout generator for river",
		Long: `waytile is a layout generator for the river Wayland compositor.
It registers under a layout namespace on every output and answers the
compositor's layout demands with a main/stack tiling, reading its parameters
from river's option store.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/waytile/waytile.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// initConfig loads the configuration file before any subcommand runs. The
// log level comes from --log-level, then the config file, then LOG_LEVEL.
func initConfig(cmd *cobra.Command, args []string) error {
	config.SetConfigPath(configPath)
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if level := config.Get().Logging.LogLevel; level != "" {
		if err := logger.SetLevel(level); err != nil {
			return err
		}
	}
	logger.Debug("Configuration loaded", "path", config.GetConfigPath())
	return nil
}
