package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/tui"
	"github.com/rafaelogic/codesnoutr-sub001/internal/bootstrap"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/normalize"
)

// targetFlags select the issue a fix is aimed at: a stored issue by id, or
// an ad hoc file and line.
type targetFlags struct {
	issueID int64
	file    string
	line    int
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&t.issueID, "issue", 0, "Stored issue id")
	cmd.Flags().StringVar(&t.file, "file", "", "Target file, relative to the project root")
	cmd.Flags().IntVar(&t.line, "line", 0, "1-based target line")
	cmd.MarkFlagsMutuallyExclusive("issue", "file")
}

func (t *targetFlags) issue(cmd *cobra.Command, eng *bootstrap.Engine) (*domain.Issue, error) {
	return eng.IssueFor(cmd.Context(), t.issueID, t.file, t.line)
}

func newApplyCmd(opts *rootOptions) *cobra.Command {
	var (
		target     targetFlags
		response   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a model response to a file",
		Long: "Recover the fix described by a model response and apply it to the target line. " +
			"The file is only written when every check passes; a backup is kept for restore.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readResponse(cmd, response)
			if err != nil {
				return err
			}
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			issue, err := target.issue(cmd, eng)
			if err != nil {
				return err
			}
			res := eng.Fixes.ApplyFix(cmd.Context(), issue, raw)

			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderResult(*issue, res, tui.TermWidth()))
			}
			if !res.Success {
				return fmt.Errorf("fix was not applied (%s)", res.ErrorKind)
			}
			return nil
		},
	}

	target.register(cmd)
	cmd.Flags().StringVar(&response, "response", "-", "File holding the model response, - for stdin")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		target     targetFlags
		response   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the diff a model response would produce",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readResponse(cmd, response)
			if err != nil {
				return err
			}
			desc, err := normalize.Normalize(raw)
			if err != nil {
				return err
			}
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			issue, err := target.issue(cmd, eng)
			if err != nil {
				return err
			}
			diff, err := eng.Fixes.Preview(cmd.Context(), issue, *desc)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), diff)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderDiff(*diff, tui.TermWidth()))
			return nil
		},
	}

	target.register(cmd)
	cmd.Flags().StringVar(&response, "response", "-", "File holding the model response, - for stdin")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the diff as JSON")

	return cmd
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	var (
		issueID   int64
		file      string
		reference string
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Undo an applied fix from its backup",
		Long:  "Write the pre-fix content back to the file and clear the issue's fixed state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			var issue *domain.Issue
			switch {
			case issueID != 0:
				issue, err = eng.Issues.Get(cmd.Context(), issueID)
				if err != nil {
					return err
				}
			case file != "" && reference != "":
				issue = &domain.Issue{FilePath: eng.Resolve(file)}
				issue.Metadata.BackupReference = reference
			default:
				return fmt.Errorf("either --issue or both --file and --backup are required")
			}

			if _, err := eng.Fixes.Restore(cmd.Context(), issue); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from backup %s\n", issue.FilePath, issue.Metadata.BackupReference)
			return nil
		},
	}

	cmd.Flags().Int64Var(&issueID, "issue", 0, "Stored issue id")
	cmd.Flags().StringVar(&file, "file", "", "File to restore, relative to the project root")
	cmd.Flags().StringVar(&reference, "backup", "", "Backup reference to restore from")

	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var response string

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Print the fix recovered from a model response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readResponse(cmd, response)
			if err != nil {
				return err
			}
			desc, stage, err := normalize.NormalizeWithStage(raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Stage string                `json:"stage"`
				Fix   *domain.FixDescriptor `json:"fix"`
			}{stage.String(), desc})
		},
	}

	cmd.Flags().StringVar(&response, "response", "-", "File holding the model response, - for stdin")

	return cmd
}

func readResponse(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
