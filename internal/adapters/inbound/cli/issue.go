package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/tui"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

func newIssueCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Record and inspect issues fixes are aimed at",
	}
	cmd.AddCommand(newIssueAddCmd(opts))
	cmd.AddCommand(newIssueListCmd(opts))
	cmd.AddCommand(newIssueShowCmd(opts))
	return cmd
}

func newIssueAddCmd(opts *rootOptions) *cobra.Command {
	var issue domain.Issue

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an issue and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if issue.Line < 1 {
				return fmt.Errorf("--line must be >= 1")
			}
			if issue.Severity != "" && !slices.Contains(domain.ValidSeverities, issue.Severity) {
				return fmt.Errorf("unknown severity %q (valid: %v)", issue.Severity, domain.ValidSeverities)
			}
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			issue.FilePath = eng.Resolve(issue.FilePath)
			id, err := eng.Issues.Create(cmd.Context(), &issue)
			if err != nil {
				return fmt.Errorf("recording issue: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&issue.FilePath, "file", "", "File the issue is in, relative to the project root")
	cmd.Flags().IntVar(&issue.Line, "line", 0, "1-based line of the issue")
	cmd.Flags().StringVar(&issue.Category, "category", "", "Issue category")
	cmd.Flags().StringVar(&issue.Severity, "severity", domain.SeverityMedium, "critical, high, medium, low or info")
	cmd.Flags().StringVar(&issue.Description, "description", "", "What is wrong")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

func newIssueListCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			issues, err := eng.Issues.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if issues == nil {
					issues = []domain.Issue{}
				}
				return writeJSON(cmd.OutOrStdout(), issues)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderIssues(issues))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newIssueShowCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an issue with its fix attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid issue id %q", args[0])
			}
			eng, err := opts.open()
			if err != nil {
				return err
			}
			defer eng.Close()

			issue, err := eng.Issues.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			attempts, err := eng.Fixes.Attempts(cmd.Context(), id)
			if err != nil {
				return err
			}

			if jsonOutput {
				if attempts == nil {
					attempts = []domain.FixAttempt{}
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					*domain.Issue
					Attempts []domain.FixAttempt `json:"attempts"`
				}{issue, attempts})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderIssues([]domain.Issue{*issue}))
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderAttempts(attempts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
