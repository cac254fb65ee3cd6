// Package root contains the root command for the application
package root

import (
	"fmt"

	"cardflow/txn-uploader/internal/config"
	"cardflow/txn-uploader/internal/container"
	"cardflow/txn-uploader/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// ConfigFile is the optional config file given with --config.
	ConfigFile string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// AppConfig is the configuration loaded before any subcommand runs.
	AppConfig *config.Config

	// Log is the shared logger for commands, rebuilt once the config is loaded.
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "txn-uploader",
		Short: "Upload card transactions from per-organization spreadsheets to the ingestion API.",
		Long: `txn-uploader walks an input directory of organization folders, extracts card
transactions from CSV, XLSX and XLS files, and posts one batch per folder to the
ingestion endpoint using the identity mapped to that folder.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
)

// Init initializes the root command flags
func Init() {
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default: ./config.yaml, .txn-uploader/ or $HOME/.txn-uploader/)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

func loadConfig() error {
	if _, err := config.LoadEnv(); err != nil {
		return err
	}

	cfg, err := config.InitializeConfig(ConfigFile)
	if err != nil {
		return err
	}
	if LogLevel != "" {
		cfg.Log.Level = LogLevel
	}

	AppConfig = cfg
	Log = config.ConfigureLoggingFromConfig(cfg)
	return nil
}

// NewContainer wires the application from the loaded configuration.
func NewContainer() (*container.Container, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return container.NewContainer(AppConfig, Log)
}
