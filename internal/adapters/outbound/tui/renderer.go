package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

var (
	amber = lipgloss.Color("#D97706")
	gray  = lipgloss.Color("#6B7280")
	green = lipgloss.Color("#22C55E")
	red   = lipgloss.Color("#EF4444")
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(0, 2)

	brandStyle    = lipgloss.NewStyle().Bold(true).Foreground(amber)
	sectionStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(gray)
	gutterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52525B"))
	addedStyle    = lipgloss.NewStyle().Foreground(green)
	removedStyle  = lipgloss.NewStyle().Foreground(red)
	rejectedStyle = removedStyle.Bold(true)

	severityStyles = map[string]lipgloss.Style{
		domain.SeverityCritical: rejectedStyle,
		domain.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FB923C")).Bold(true),
		domain.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
)

// rule is a horizontal separator n cells wide.
func rule(n int) string {
	return gutterStyle.Render(strings.Repeat("─", n))
}

// TermWidth returns the width of the terminal on stdout, defaulting to 80.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// RenderResult formats the outcome of one fix attempt, including the diff
// preview when the fix was applied.
func RenderResult(issue domain.Issue, res domain.ApplyResult, width int) string {
	var b strings.Builder

	title := brandStyle.Render("codesnoutr")
	target := mutedStyle.Render(fmt.Sprintf("%s:%d", shortenPath(issue.FilePath), issue.Line))
	var status string
	if res.Success {
		status = addedStyle.Bold(true).Render("✓ fix applied")
	} else {
		status = rejectedStyle.Render(fmt.Sprintf("✗ %s error", res.ErrorKind))
	}
	b.WriteString(bannerStyle.Render(title + "\n" + target + "\n\n" + status))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render(res.Message))
	if res.Placement != "" || res.Enclosing != "" {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(fmt.Sprintf("placement %s in %s", orDash(string(res.Placement)), orDash(string(res.Enclosing)))))
	}
	if res.BackupReference != "" {
		fmt.Fprintf(&b, "  %s %s\n", mutedStyle.Render("backup"), res.BackupReference)
	}

	if res.Preview != nil {
		b.WriteString("\n")
		b.WriteString(RenderDiff(*res.Preview, width))
	}
	return b.String()
}

// RenderDiff formats a preview as removed and added lines keyed by the
// original line number. Long lines are cut to width.
func RenderDiff(diff domain.Diff, width int) string {
	var b strings.Builder
	b.WriteString("  " + sectionStyle.Render("Preview") + "  ")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d changed lines", diff.TotalChanges)))
	b.WriteString("\n  " + rule(max(min(width-4, 64), 8)) + "\n")

	if diff.TotalChanges == 0 {
		b.WriteString("  " + mutedStyle.Render("No changes.") + "\n")
		return b.String()
	}

	room := max(width-12, 20)
	for _, c := range diff.Changes {
		num := gutterStyle.Render(fmt.Sprintf("%5d", c.Line))
		if c.Original != "" {
			fmt.Fprintf(&b, "  %s %s\n", num, removedStyle.Render("- "+truncate(c.Original, room)))
			num = gutterStyle.Render("     ")
		}
		if c.Modified != "" || c.Original == "" {
			fmt.Fprintf(&b, "  %s %s\n", num, addedStyle.Render("+ "+truncate(c.Modified, room)))
		}
	}
	return b.String()
}

// RenderIssues lists issues most severe first.
func RenderIssues(issues []domain.Issue) string {
	if len(issues) == 0 {
		return "  " + mutedStyle.Render("No issues recorded.") + "\n"
	}

	sorted := append([]domain.Issue(nil), issues...)
	sortBySeverity(sorted)

	var b strings.Builder
	b.WriteString("\n  " + sectionStyle.Render("Issues") + "  ")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d", len(sorted))) + "\n\n")
	for _, issue := range sorted {
		renderIssue(&b, issue)
	}
	return b.String()
}

func renderIssue(b *strings.Builder, issue domain.Issue) {
	loc := mutedStyle.Render(fmt.Sprintf("%s:%d", shortenPath(issue.FilePath), issue.Line))
	line := fmt.Sprintf("    %s %s %s", gutterStyle.Render(fmt.Sprintf("#%-4d", issue.ID)), severityTag(issue.Severity), loc)
	if issue.Metadata.Fixed {
		line += "  " + addedStyle.Render("fixed")
	}
	b.WriteString(line + "\n")
	if issue.Description != "" {
		fmt.Fprintf(b, "          %s\n", mutedStyle.Render(issue.Description))
	}
}

func severityTag(severity string) string {
	label := padRight(severity, 8)
	if severity == "" {
		label = padRight("-", 8)
	}
	if style, ok := severityStyles[severity]; ok {
		return style.Render(label)
	}
	return mutedStyle.Render(label)
}

func sortBySeverity(issues []domain.Issue) {
	order := make(map[string]int, len(domain.ValidSeverities))
	for i, s := range domain.ValidSeverities {
		order[s] = i
	}
	rank := func(s string) int {
		if r, ok := order[s]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return rank(issues[i].Severity) < rank(issues[j].Severity)
	})
}

func shortenPath(path string) string {
	for _, root := range []string{"app/", "src/", "tests/"} {
		if idx := strings.Index(filepath.ToSlash(path), "/"+root); idx >= 0 {
			return filepath.ToSlash(path)[idx+1:]
		}
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		return strings.Join(parts[len(parts)-3:], "/")
	}
	return path
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
