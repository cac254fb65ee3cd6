// Package mapping implements the organization mapping commands
package mapping

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cardflow/txn-uploader/cmd/root"
	"cardflow/txn-uploader/internal/models"
	"cardflow/txn-uploader/internal/store"

	"github.com/spf13/cobra"
)

// Cmd groups the mapping subcommands
var Cmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect the folder to organization mapping",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List mapped folders and mark those still missing an identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := root.NewContainer()
		if err != nil {
			return err
		}
		return WriteList(cmd.OutOrStdout(), app.GetStore(), app.GetConfig().Scheme())
	},
}

func init() {
	Cmd.AddCommand(listCmd)
}

// WriteList prints one line per mapping entry. Entries that cannot be used
// with scheme are flagged so an operator knows what to fill in.
func WriteList(w io.Writer, s *store.MappingStore, scheme models.Scheme) error {
	entries := s.Entries()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "FOLDER\tIDENTITY\tSTATUS\n")
	for _, entry := range entries {
		status := "ok"
		if !entry.Identity.Matches(scheme) {
			status = "UNRESOLVED"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Folder, entry.Identity, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d folder(s), %d unresolved (%s)\n", len(entries), len(s.Unresolved()), s.Path())
	return err
}
