// Package structure decides what syntactic construct encloses a line of
// source code using bracket balance and declaration patterns. It does not
// parse; it reads the shape of the file the way a reviewer skims it.
package structure

import (
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

// Analyzer implements domain.StructureAnalyzer.
type Analyzer struct {
	window int
}

// New returns an Analyzer that looks at most window lines above the target
// when searching for an unclosed array literal.
func New(window int) *Analyzer {
	if window <= 0 {
		window = domain.DefaultContextWindow
	}
	return &Analyzer{window: window}
}

// Analyze classifies the 1-based target line of lines.
func (a *Analyzer) Analyze(lines []string, target int) domain.StructuralContext {
	sc := domain.StructuralContext{Kind: domain.EnclosingUnknown}
	if len(lines) == 0 || target < 1 || target > len(lines) {
		return sc
	}
	idx := target - 1
	sc.Indentation = LeadingWhitespace(lines[idx])

	if a.insideArray(lines, idx) {
		sc.Kind = domain.EnclosingArrayLiteral
		return sc
	}

	classLine, className := enclosingClass(lines, idx)
	if classLine < 0 {
		sc.Kind = domain.EnclosingFileLevel
		return sc
	}
	sc.Kind = domain.EnclosingClassBody
	sc.EnclosingName = className
	sc.ClassLine = classLine + 1
	sc.ClassIndent = LeadingWhitespace(lines[classLine])
	sc.IsDeclarationLine = classLine == idx
	if sc.IsDeclarationLine {
		return sc
	}

	for i := idx; i > classLine; i-- {
		name, ok := MethodDeclaration(lines[i])
		if !ok {
			continue
		}
		switch {
		case i == idx:
			// A method declaration line is member level, not inside the body.
			sc.MethodName, sc.MethodLine = name, i+1
		case BlockOpenAt(lines, i, idx):
			sc.Kind = domain.EnclosingMethodBody
			sc.EnclosingName = name
			sc.MethodName, sc.MethodLine = name, i+1
		}
		break
	}
	return sc
}

// insideArray reports whether an unclosed '[' sits above idx before the
// previous statement boundary.
func (a *Analyzer) insideArray(lines []string, idx int) bool {
	balance := 0
	for i := idx - 1; i >= 0 && i >= idx-a.window; i-- {
		if IsCommentLine(lines[i]) {
			continue
		}
		balance += BracketDelta(lines[i])
		if balance > 0 {
			return true
		}
		if IsTerminator(lines[i]) {
			return false
		}
	}
	return false
}

// enclosingClass returns the 0-based line and name of the type declaration
// whose body is open at idx, or -1.
func enclosingClass(lines []string, idx int) (int, string) {
	for i := idx; i >= 0; i-- {
		name, ok := ClassDeclaration(lines[i])
		if !ok {
			continue
		}
		if i == idx || BlockOpenAt(lines, i, idx) {
			return i, name
		}
		// Type declarations do not nest, so a closed one ends the search.
		return -1, ""
	}
	return -1, ""
}
