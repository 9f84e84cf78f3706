package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

// RenderBackup formats the metadata of one snapshot.
func RenderBackup(b *domain.Backup) string {
	var s strings.Builder
	s.WriteString("\n  " + brandStyle.Render("Backup") + " " + b.Reference + "\n")
	s.WriteString("  " + rule(48) + "\n")
	field(&s, "file", b.Path)
	field(&s, "taken", b.CreatedAt.Local().Format(time.DateTime))
	field(&s, "size", fmt.Sprintf("%d bytes", len(b.OriginalContent)))
	field(&s, "sha256", shortHash(b.ContentHash, 16))
	if b.CommitHash != "" {
		field(&s, "commit", shortHash(b.CommitHash, 7))
	}
	return s.String()
}

// RenderBackups lists snapshots oldest first.
func RenderBackups(backups []domain.Backup) string {
	if len(backups) == 0 {
		return "  " + mutedStyle.Render("No backups found.") + "\n"
	}

	var s strings.Builder
	s.WriteString("\n  " + sectionStyle.Render("Backups") + "\n")
	s.WriteString("  " + rule(50) + "\n\n")
	for _, b := range backups {
		commit := shortHash(b.CommitHash, 7)
		if commit == "" {
			commit = "·······"
		}
		fmt.Fprintf(&s, "  %s  %s  %s  %s\n",
			mutedStyle.Render(b.CreatedAt.Local().Format(time.DateTime)),
			gutterStyle.Render(commit),
			b.Reference,
			mutedStyle.Render(shortenPath(b.Path)),
		)
	}
	return s.String()
}

// RenderAttempts formats the fix journal of an issue.
func RenderAttempts(attempts []domain.FixAttempt) string {
	if len(attempts) == 0 {
		return "  " + mutedStyle.Render("No fix attempts recorded.") + "\n"
	}

	var s strings.Builder
	s.WriteString("\n  " + sectionStyle.Render("Fix attempts") + "\n")
	s.WriteString("  " + rule(50) + "\n\n")
	for _, a := range attempts {
		mark := addedStyle.Render("✓")
		if !a.Success {
			mark = removedStyle.Render("✗")
		}
		line := fmt.Sprintf("  %s  %s  %s", mutedStyle.Render(a.CreatedAt.Local().Format(time.DateTime)), mark, a.Message)
		if a.ErrorKind != "" {
			line += "  " + gutterStyle.Render(string(a.ErrorKind))
		}
		s.WriteString(line + "\n")
	}
	return s.String()
}

func field(s *strings.Builder, name, value string) {
	fmt.Fprintf(s, "  %s %s\n", mutedStyle.Render(padRight(name, 8)), value)
}

func shortHash(hash string, n int) string {
	if len(hash) > n {
		return hash[:n]
	}
	return hash
}
