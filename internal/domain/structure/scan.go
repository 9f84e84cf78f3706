package structure

import (
	"regexp"
	"strings"
)

var (
	classDecl   = regexp.MustCompile(`^\s*(?:(?:abstract|final|readonly)\s+)*(?:class|interface|trait|enum)\s+([A-Za-z_]\w*)`)
	methodDecl  = regexp.MustCompile(`^\s*(?:#\[[^\]]*\]\s*)?(?:(?:public|protected|private|static|abstract|final)\s+)*function\s+&?\s*([A-Za-z_]\w*)\s*\(`)
	visibleDecl = regexp.MustCompile(`^\s*(?:(?:abstract|final|static)\s+)*(?:public|protected|private)\s+(?:(?:static|abstract|final)\s+)*function\s+&?\s*([A-Za-z_]\w*)\s*\(`)
)

// ClassDeclaration reports whether line declares a class, interface, trait
// or enum, and returns its name.
func ClassDeclaration(line string) (string, bool) {
	m := classDecl.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MethodDeclaration reports whether line declares a function, with or
// without modifiers, and returns its name.
func MethodDeclaration(line string) (string, bool) {
	m := methodDecl.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// VisibleMethodDeclaration is MethodDeclaration restricted to declarations
// carrying an explicit visibility modifier.
func VisibleMethodDeclaration(line string) (string, bool) {
	m := visibleDecl.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LeadingWhitespace returns the indentation of line.
func LeadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// IsBlank reports whether line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IsCommentLine reports whether line is a whole-line comment or part of a
// block comment. Attribute lines ("#[...]") are not comments.
func IsCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(t, "//"), strings.HasPrefix(t, "/*"), strings.HasPrefix(t, "*"):
		return true
	case strings.HasPrefix(t, "#") && !strings.HasPrefix(t, "#["):
		return true
	}
	return false
}

// CodePart strips string literal contents and trailing line comments so
// bracket counting only sees structural characters. Comment lines yield "".
func CodePart(line string) string {
	if IsCommentLine(line) {
		return ""
	}
	var b strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
				b.WriteByte(c)
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return b.String()
		case c == '#' && (i+1 >= len(line) || line[i+1] != '['):
			return b.String()
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// BraceDelta returns the net '{' minus '}' count of the code part of line.
func BraceDelta(line string) int {
	code := CodePart(line)
	return strings.Count(code, "{") - strings.Count(code, "}")
}

// BracketDelta returns the net '[' minus ']' count of the code part of line.
func BracketDelta(line string) int {
	code := CodePart(line)
	return strings.Count(code, "[") - strings.Count(code, "]")
}

// IsTerminator reports whether line ends a statement or opens/closes a block.
func IsTerminator(line string) bool {
	t := strings.TrimSpace(CodePart(line))
	return strings.HasSuffix(t, ";") || strings.HasSuffix(t, "{") || strings.HasPrefix(t, "}")
}

// BlockOpenAt reports whether the block declared on line decl is still open
// just before line at (both 0-based). A declaration that has not reached its
// opening brace yet counts as open, unless it ended with ';' (no body).
func BlockOpenAt(lines []string, decl, at int) bool {
	depth := 0
	opened := false
	for i := decl; i < at && i < len(lines); i++ {
		code := CodePart(lines[i])
		for _, c := range code {
			switch c {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
			if opened && depth <= 0 {
				return false
			}
		}
		if !opened && strings.HasSuffix(strings.TrimSpace(code), ";") {
			return false
		}
	}
	return true
}

// FindOpeningBrace returns the 0-based index of the first line at or after
// start, within limit lines, whose code contains '{'; -1 if none.
func FindOpeningBrace(lines []string, start, limit int) int {
	for i := start; i < len(lines) && i <= start+limit; i++ {
		if strings.Contains(CodePart(lines[i]), "{") {
			return i
		}
	}
	return -1
}

// FindBlockEnd returns the 0-based index of the line whose '}' closes the
// first block opened at or after start. A declaration without a body
// (abstract or interface methods) ends on the line of its ';', which may be
// start itself. Returns -1 if the block never closes.
func FindBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		code := CodePart(lines[i])
		for _, c := range code {
			switch c {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
				if opened && depth == 0 {
					return i
				}
			}
		}
		if !opened && strings.HasSuffix(strings.TrimSpace(code), ";") {
			return i
		}
	}
	return -1
}
