// Package run implements the upload command
package run

import (
	"context"
	"fmt"

	"cardflow/txn-uploader/cmd/root"
	"cardflow/txn-uploader/internal/config"
	"cardflow/txn-uploader/internal/logging"
	"cardflow/txn-uploader/internal/report"
	"cardflow/txn-uploader/internal/validation"

	"github.com/spf13/cobra"
)

// Flags holds the run command overrides.
type Flags struct {
	Dir      string
	Endpoint string
	Mapping  string
	DryRun   bool
	Report   string
}

var flags Flags

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Extract and upload transactions for every organization folder",
	Long: `Walk the input directory, group files by organization folder, extract the
card transactions and post one batch per folder to the ingestion endpoint.

Folders missing from the mapping file get a placeholder entry and are skipped
until an operator fills in their identity.

Example:
  txn-uploader run --dir ./exports/2024-01-01_2024-01-31 --report summary.csv`,
	RunE: runFunc,
}

func init() {
	Cmd.Flags().StringVar(&flags.Dir, "dir", "", "Input directory (overrides input.directory)")
	Cmd.Flags().StringVar(&flags.Endpoint, "endpoint", "", "Submission endpoint (overrides submit.endpoint)")
	Cmd.Flags().StringVar(&flags.Mapping, "mapping", "", "Organization mapping file (overrides mapping.path)")
	Cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Build batches without sending them")
	Cmd.Flags().StringVar(&flags.Report, "report", "", "Write the run summary to a .csv or .json file")
}

// ApplyFlags copies the command-line overrides onto cfg and checks them.
func ApplyFlags(cfg *config.Config, f Flags) error {
	if f.Dir != "" {
		cfg.Input.Directory = f.Dir
	}
	if f.Endpoint != "" {
		cfg.Submit.Endpoint = f.Endpoint
	}
	if f.Mapping != "" {
		cfg.Mapping.Path = f.Mapping
	}
	if f.DryRun {
		cfg.Submit.DryRun = true
	}

	if cfg.Submit.Endpoint == "" && !cfg.Submit.DryRun {
		return fmt.Errorf("a submission endpoint is required unless --dry-run is set")
	}
	if f.Report != "" {
		if err := validation.IsValidReportFormat(f.Report); err != nil {
			return err
		}
	}
	return nil
}

func runFunc(cmd *cobra.Command, args []string) error {
	cfg := root.AppConfig
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if err := ApplyFlags(cfg, flags); err != nil {
		return err
	}

	dir, err := cfg.ResolveRoot()
	if err != nil {
		return err
	}

	app, err := root.NewContainer()
	if err != nil {
		return err
	}
	logger := app.GetLogger()
	logger.Info("Starting upload run",
		logging.Field{Key: logging.FieldFolder, Value: dir},
		logging.Field{Key: logging.FieldScheme, Value: cfg.Scheme()},
		logging.Field{Key: logging.FieldEndpoint, Value: cfg.Submit.Endpoint})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := app.Orchestrator(dir).Run(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteText(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if flags.Report != "" {
		if err := report.WriteFile(flags.Report, result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("Run report written", logging.Field{Key: logging.FieldFile, Value: flags.Report})
	}
	return nil
}
