package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/tui"
)

func newBackupCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Inspect pre-fix snapshots",
	}
	cmd.AddCommand(newBackupListCmd(opts))
	cmd.AddCommand(newBackupShowCmd(opts))
	return cmd
}

func newBackupListCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			backups, err := eng.Backups.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing backups: %w", err)
			}
			if jsonOutput {
				type entry struct {
					Reference  string `json:"reference"`
					Path       string `json:"path"`
					CommitHash string `json:"commit_hash,omitempty"`
					CreatedAt  string `json:"created_at"`
				}
				out := make([]entry, 0, len(backups))
				for _, b := range backups {
					out = append(out, entry{b.Reference, b.Path, b.CommitHash, b.CreatedAt.Format(time.RFC3339)})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderBackups(backups))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newBackupShowCmd(opts *rootOptions) *cobra.Command {
	var content bool

	cmd := &cobra.Command{
		Use:   "show <reference>",
		Short: "Show a backup's metadata or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			b, err := eng.Backups.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if content {
				_, err := cmd.OutOrStdout().Write(b.OriginalContent)
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderBackup(b))
			return nil
		},
	}

	cmd.Flags().BoolVar(&content, "content", false, "Print the saved file content instead of metadata")

	return cmd
}
