package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rafaelogic/codesnoutr-sub001/internal/bootstrap"
)

var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	path    string
	verbose bool
	logger  *slog.Logger
}

func (o *rootOptions) open() (*bootstrap.Engine, error) {
	return bootstrap.Open(o.path, o.logger)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "codesnoutr",
		Short: "Apply model-suggested code fixes without breaking the file",
		Long: "codesnoutr takes the free-form answer of a language model, recovers the fix it describes, " +
			"checks that it fits where it is aimed, and writes it with a backup you can restore.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.path, "path", ".", "Project root holding .codesnoutr.yaml")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log each pipeline stage to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newApplyCmd(opts))
	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newRestoreCmd(opts))
	cmd.AddCommand(newIssueCmd(opts))
	cmd.AddCommand(newBackupCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show codesnoutr version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "codesnoutr %s (%s)\n", version, commit)
			return nil
		},
	}
}
