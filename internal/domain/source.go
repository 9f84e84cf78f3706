package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// SourceFile is the line-based representation the engine edits. Lines never
// carry their terminator; LineEnding is the ending most lines of the file use.
type SourceFile struct {
	Path       string
	Lines      []string
	LineEnding string
}

// ParseSource splits content into lines on '\n', dropping a trailing '\r'
// from each. A file that mixes endings is joined back with its dominant one,
// CRLF only when it outnumbers bare LF. A trailing newline shows up as a
// final empty line.
func ParseSource(path, content string) *SourceFile {
	lines := strings.Split(content, "\n")
	crlf := 0
	for i, l := range lines[:len(lines)-1] {
		if strings.HasSuffix(l, "\r") {
			lines[i] = strings.TrimSuffix(l, "\r")
			crlf++
		}
	}
	ending := "\n"
	if crlf > len(lines)-1-crlf {
		ending = "\r\n"
	}
	return &SourceFile{Path: path, Lines: lines, LineEnding: ending}
}

// String joins the lines back into file content.
func (f *SourceFile) String() string {
	return strings.Join(f.Lines, f.LineEnding)
}

// Join renders lines with the file's line ending.
func (f *SourceFile) Join(lines []string) string {
	return strings.Join(lines, f.LineEnding)
}

// LineCount returns the number of addressable lines, not counting the empty
// element produced by a trailing newline.
func (f *SourceFile) LineCount() int {
	n := len(f.Lines)
	if n > 0 && f.Lines[n-1] == "" {
		n--
	}
	return n
}

// Kind returns the file kind used to pick a syntax checker, derived from the
// extension ("php", "go", "yaml", ...).
func (f *SourceFile) Kind() string {
	return FileKind(f.Path)
}

// FileKind maps a path to its file kind.
func FileKind(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "yml":
		return "yaml"
	case "phtml":
		return "php"
	}
	return ext
}

// ContentHash returns the hex SHA-256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
