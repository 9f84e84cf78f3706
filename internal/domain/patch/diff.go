package patch

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

// Preview computes a line-level diff between original and modified content.
// Removed and added lines that replace each other are paired into a single
// change; pure insertions carry the original line they are inserted before.
func Preview(original, modified string) domain.Diff {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(original, modified)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	diff := domain.Diff{Changes: []domain.LineChange{}}
	line := 1
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			line += len(splitLines(d.Text))
		case diffmatchpatch.DiffDelete:
			removed := splitLines(d.Text)
			var added []string
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				added = splitLines(diffs[i+1].Text)
				i++
			}
			diff.Changes = append(diff.Changes, pair(line, removed, added)...)
			line += len(removed)
		case diffmatchpatch.DiffInsert:
			diff.Changes = append(diff.Changes, pair(line, nil, splitLines(d.Text))...)
		}
	}
	diff.TotalChanges = len(diff.Changes)
	return diff
}

func pair(line int, removed, added []string) []domain.LineChange {
	n := max(len(removed), len(added))
	changes := make([]domain.LineChange, 0, n)
	for i := 0; i < n; i++ {
		c := domain.LineChange{Line: line + min(i, len(removed))}
		if i < len(removed) {
			c.Original = removed[i]
		}
		if i < len(added) {
			c.Modified = added[i]
		}
		changes = append(changes, c)
	}
	return changes
}

// splitLines splits diff text into lines without their terminators.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
