package patch

import (
	"strings"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
)

const defaultIndentUnit = "    "

// DetectIndentUnit returns the file's indentation step: a tab when lines are
// tab-indented, else the smallest run of leading spaces. Doc-comment
// continuation lines are ignored since they sit one space past their block.
func DetectIndentUnit(lines []string) string {
	smallest := 0
	for _, line := range lines {
		if structure.IsBlank(line) {
			continue
		}
		ws := structure.LeadingWhitespace(line)
		if ws == "" {
			continue
		}
		if strings.HasPrefix(ws, "\t") {
			return "\t"
		}
		if strings.HasPrefix(strings.TrimSpace(line), "*") {
			continue
		}
		if n := len(ws); smallest == 0 || n < smallest {
			smallest = n
		}
	}
	if smallest == 0 {
		return defaultIndentUnit
	}
	return strings.Repeat(" ", smallest)
}

// payloadLines splits fix code into lines, dropping carriage returns and
// surrounding blank lines.
func payloadLines(code string) []string {
	raw := strings.Split(code, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimRight(l, "\r"))
	}
	for len(lines) > 0 && structure.IsBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && structure.IsBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// reindent places payload at base. A payload whose later lines sit left of
// base was written relative to column 0 and is shifted as a block, keeping
// its nesting. Otherwise later lines already carry file indentation and only
// the first line is moved.
func reindent(payload []string, base string) []string {
	if len(payload) == 0 {
		return nil
	}
	out := make([]string, len(payload))

	if relative(payload, base) {
		common := commonIndent(payload)
		for i, l := range payload {
			if structure.IsBlank(l) {
				continue
			}
			out[i] = base + l[common:]
		}
		return out
	}

	out[0] = base + strings.TrimLeft(payload[0], " \t")
	for i, l := range payload[1:] {
		if structure.IsBlank(l) {
			continue
		}
		out[i+1] = l
	}
	return out
}

func relative(payload []string, base string) bool {
	if base == "" {
		return true
	}
	for _, l := range payload[1:] {
		if structure.IsBlank(l) {
			continue
		}
		if len(structure.LeadingWhitespace(l)) < len(base) {
			return true
		}
	}
	return false
}

// commonIndent is the byte width of the shortest indentation among the
// non-blank lines.
func commonIndent(lines []string) int {
	common := -1
	for _, l := range lines {
		if structure.IsBlank(l) {
			continue
		}
		if n := len(structure.LeadingWhitespace(l)); common < 0 || n < common {
			common = n
		}
	}
	if common < 0 {
		return 0
	}
	return common
}
