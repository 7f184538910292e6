package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Shuru63/skylark-lab-assignment/internal/config"
	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "backend",
	Short: "Camera management backend",
	Long: `backend serves the camera management API: account registration and
login, per-user camera and alert records, and a websocket channel that
pushes new alerts to the owning user's open dashboards.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: $CONFIG_PATH or ./config.yaml)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies its logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	return cfg, nil
}
