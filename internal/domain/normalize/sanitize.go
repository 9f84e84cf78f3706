package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	backslashRun   = regexp.MustCompile(`\\{3,}`)
	namespaceSplit = regexp.MustCompile(`\\{2,}([A-Z])`)
)

// sanitize applies the text-level repairs of the third stage.
func sanitize(s string) string {
	s = stripControl(s)
	s = mapDocblocks(s, func(span string) string {
		r := strings.NewReplacer(`\\n`, `\n`, `\\t`, `\t`, `\\r`, `\r`)
		return r.Replace(span)
	})
	s = backslashRun.ReplaceAllString(s, `\\`)
	return repairStrings(s)
}

// stripControl drops ASCII control codes other than newline, carriage
// return and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// stripNonPrintable drops every rune that is neither printable nor JSON
// whitespace, plus bytes that are not valid UTF-8.
func stripNonPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// repairStrings walks JSON string literals, escaping raw line breaks and
// tabs and doubling backslashes that would start an invalid escape.
func repairStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inString = false
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\\':
			if i+1 < len(s) && validEscape(s[i+1:]) {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
				continue
			}
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func validEscape(rest string) bool {
	switch rest[0] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return true
	case 'u':
		if len(rest) < 5 {
			return false
		}
		for _, h := range rest[1:5] {
			if !isHex(h) {
				return false
			}
		}
		return true
	}
	return false
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// mapDocblocks applies fn to every "/**" ... "*/" span of s. An unterminated
// span runs to the end of s.
func mapDocblocks(s string, fn func(string) string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "/**")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		rest := s[start:]
		end := strings.Index(rest[3:], "*/")
		if end < 0 {
			b.WriteString(fn(rest))
			return b.String()
		}
		end += 3 + 2
		b.WriteString(fn(rest[:end]))
		s = rest[end:]
	}
}

// repairCode undoes over-escaping that survives a successful parse: doubled
// namespace separators and literal escape sequences inside doc-comments.
func repairCode(code string) string {
	code = namespaceSplit.ReplaceAllString(code, `\${1}`)
	return mapDocblocks(code, func(span string) string {
		r := strings.NewReplacer(`\r\n`, "\n", `\n`, "\n", `\t`, "\t", `\r`, "")
		return r.Replace(span)
	})
}
