// Package cli implements the votecast command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/votecast/backoffice/internal/daemon"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "votecast",
	Short: "Revenue and withdrawal back office for pay-per-vote awards",
	Long: `votecast runs the back office of a pay-per-vote award platform:
commission schemes, revenue reports, organizer balances and the
withdrawal approval workflow.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.toml (default ~/.votecast/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration from --config or the default path.
func loadConfig() (daemon.Config, error) {
	if configPath != "" {
		return daemon.Load(configPath, true)
	}
	return daemon.Load(daemon.DefaultConfigPath(), false)
}

// openDaemon wires the services for a one-shot command. Callers must Close.
func openDaemon(cmd *cobra.Command) (*daemon.Daemon, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Log
	if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	d, err := daemon.New(cfg, daemon.NewLogger(cmd.ErrOrStderr(), logCfg))
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return d, nil
}
