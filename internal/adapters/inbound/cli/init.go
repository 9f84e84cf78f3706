package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/validation"
)

const configFileName = ".codesnoutr.yaml"

func newInitCmd(opts *rootOptions) *cobra.Command {
	var (
		force  bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .codesnoutr.yaml configuration file",
		Long:  "Create a .codesnoutr.yaml with the default engine settings in the project root.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(opts.path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, configFileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
				}
			}

			if err := os.WriteFile(dest, []byte(generateConfig(strict)), 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configFileName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing .codesnoutr.yaml")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject fixes when the syntax checker is not installed")

	return cmd
}

func generateConfig(strict bool) string {
	var b strings.Builder

	b.WriteString("# codesnoutr configuration\n\n")
	b.WriteString("engine:\n")
	fmt.Fprintf(&b, "  min_confidence: %.2f\n", domain.DefaultMinConfidence)
	fmt.Fprintf(&b, "  context_window: %d\n", domain.DefaultContextWindow)
	fmt.Fprintf(&b, "  brace_search_limit: %d\n", domain.DefaultBraceSearchLimit)
	b.WriteString("  # indent_unit: \"    \"   # detected from the file when unset\n\n")

	b.WriteString("syntax:\n")
	fmt.Fprintf(&b, "  timeout: %s\n", domain.DefaultSyntaxTimeout)
	fmt.Fprintf(&b, "  require_checker: %t\n", strict)
	b.WriteString("  commands:\n")
	for kind, argv := range domain.DefaultSyntaxCommands() {
		fmt.Fprintf(&b, "    %s: [%s]\n", kind, quoteAll(argv))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "backup:\n  dir: %s\n\n", domain.DefaultBackupDir)
	fmt.Fprintf(&b, "store:\n  path: %s\n\n", domain.DefaultStorePath)

	b.WriteString("validation:\n")
	b.WriteString("  # built-in conventions: ")
	b.WriteString(strings.Join(validation.New(domain.DefaultConfig()).Rules(), ", ") + "\n")
	b.WriteString("  disabled_conventions: []\n")
	b.WriteString(`  # confusable_pairs:
  #   - {from: "->save(", to: "->update(", message: "save() and update() persist differently"}
`)

	return b.String()
}

func quoteAll(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return strings.Join(quoted, ", ")
}
