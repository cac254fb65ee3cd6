// Package configcmd implements the config inspection command
package configcmd

import (
	"fmt"
	"io"

	"cardflow/txn-uploader/cmd/root"
	"cardflow/txn-uploader/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Cmd groups the config subcommands
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if root.AppConfig == nil {
			return fmt.Errorf("configuration not loaded")
		}
		return Show(cmd.OutOrStdout(), root.AppConfig)
	},
}

func init() {
	Cmd.AddCommand(showCmd)
}

// Show renders cfg as YAML with the bearer token redacted.
func Show(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
