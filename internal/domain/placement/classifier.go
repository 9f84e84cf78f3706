// Package placement categorizes a fix payload by the structural position it
// is written for, independent of where it is aimed.
package placement

import (
	"regexp"
	"strings"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
)

var (
	classDocTag = regexp.MustCompile(`@(?:package|subpackage|category)\b`)
	classWord   = regexp.MustCompile(`\bClass\b`)
	memberStart = regexp.MustCompile(`^(?:(?:abstract|final|static|readonly)\s+)*(?:public|protected|private|var|const)\b`)
	traitUse    = regexp.MustCompile(`^use\s+\w+(?:\s*,\s*\w+)*\s*[;{]`)
)

// Classify returns the placement category of code.
func Classify(code string) domain.PlacementKind {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return domain.PlacementGeneric
	}

	if strings.HasPrefix(trimmed, "/**") {
		doc, rest := SplitDocblock(trimmed)
		if classWord.MatchString(doc) || classDocTag.MatchString(doc) {
			return domain.PlacementClassDocblock
		}
		first := firstCodeLine(rest)
		if _, ok := structure.ClassDeclaration(first); ok {
			return domain.PlacementClassDocblock
		}
		if isFullMethod(rest) {
			return domain.PlacementFullMethodBody
		}
		return domain.PlacementMemberDocblock
	}

	if isFullMethod(trimmed) {
		return domain.PlacementFullMethodBody
	}
	first := strings.TrimSpace(firstCodeLine(trimmed))
	if memberStart.MatchString(first) || traitUse.MatchString(first) {
		return domain.PlacementClassMember
	}
	return domain.PlacementGeneric
}

// SplitDocblock separates a leading "/** ... */" comment from the code that
// follows it. Without a leading doc-comment, doc is empty.
func SplitDocblock(code string) (doc, rest string) {
	trimmed := strings.TrimLeft(code, " \t\r\n")
	if !strings.HasPrefix(trimmed, "/**") {
		return "", code
	}
	end := strings.Index(trimmed, "*/")
	if end < 0 {
		return trimmed, ""
	}
	return trimmed[:end+2], strings.TrimLeft(trimmed[end+2:], "\r\n")
}

// MethodName returns the name of the method a payload declares, if any.
func MethodName(code string) string {
	_, rest := SplitDocblock(code)
	name, _ := structure.MethodDeclaration(firstCodeLine(rest))
	return name
}

func isFullMethod(code string) bool {
	if _, ok := structure.VisibleMethodDeclaration(firstCodeLine(code)); !ok {
		return false
	}
	if !strings.Contains(code, "{") {
		return false
	}
	depth := 0
	for _, line := range strings.Split(code, "\n") {
		depth += structure.BraceDelta(line)
	}
	return depth == 0
}

// firstCodeLine returns the first line that is neither blank, a comment nor
// an attribute.
func firstCodeLine(code string) string {
	for _, line := range strings.Split(code, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || structure.IsCommentLine(line) || strings.HasPrefix(t, "#[") {
			continue
		}
		return strings.TrimRight(line, "\r")
	}
	return ""
}
