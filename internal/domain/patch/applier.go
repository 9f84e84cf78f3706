// Package patch turns a validated fix into new file content. Each placement
// category has its own anchor rule; everything else operates on the affected
// lines directly.
package patch

import (
	"fmt"
	"strings"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/placement"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
)

// Applier implements domain.PatchApplier.
type Applier struct {
	braceSearchLimit int
	indentUnit       string
}

// New builds an Applier from the engine section of cfg.
func New(cfg domain.Config) *Applier {
	return &Applier{
		braceSearchLimit: cfg.BraceSearchLimit(),
		indentUnit:       cfg.Engine.IndentUnit,
	}
}

// Apply returns the content of src with desc applied at the 1-based target
// line. Line endings and the trailing newline of src are preserved.
func (a *Applier) Apply(src *domain.SourceFile, sc domain.StructuralContext, pl domain.PlacementKind, desc domain.FixDescriptor, target int) (string, error) {
	n := src.LineCount()
	if target < 1 || target > n {
		return "", domain.PlacementError(fmt.Sprintf("target line %d is outside the file (1-%d)", target, n))
	}
	lines := append([]string(nil), src.Lines[:n]...)
	e := &edit{
		lines:   lines,
		sc:      sc,
		desc:    desc,
		payload: payloadLines(desc.Code),
		target:  target,
		unit:    a.unit(lines),
		limit:   a.braceSearchLimit,
	}

	if desc.Kind == domain.FixDelete {
		pl = domain.PlacementGeneric
	}

	var (
		out []string
		err error
	)
	switch pl {
	case domain.PlacementClassDocblock:
		out, err = e.classDocblock()
	case domain.PlacementMemberDocblock:
		out, err = e.memberDocblock()
	case domain.PlacementClassMember, domain.PlacementFullMethodBody:
		switch {
		case sc.IsDeclarationLine:
			out, err = e.afterClassBrace()
		case pl == domain.PlacementFullMethodBody:
			out, err = e.methodBody()
		default:
			out, err = e.classMember()
		}
	default:
		out, err = e.generic()
	}
	if err != nil {
		return "", err
	}

	if len(src.Lines) > n {
		out = append(out, "")
	}
	return src.Join(out), nil
}

func (a *Applier) unit(lines []string) string {
	if a.indentUnit != "" {
		return a.indentUnit
	}
	return DetectIndentUnit(lines)
}

// edit holds the state of one Apply call.
type edit struct {
	lines   []string
	sc      domain.StructuralContext
	desc    domain.FixDescriptor
	payload []string
	target  int
	unit    string
	limit   int
}

// splice replaces lines[from:to] with repl.
func (e *edit) splice(from, to int, repl []string) []string {
	out := make([]string, 0, len(e.lines)-(to-from)+len(repl))
	out = append(out, e.lines[:from]...)
	out = append(out, repl...)
	return append(out, e.lines[to:]...)
}

func (e *edit) classDocblock() ([]string, error) {
	doc := docLines(e.payload)
	classIdx := e.classLine()
	if classIdx < 0 {
		return nil, domain.PlacementError("no class declaration found for the class doc-comment")
	}
	from, to := e.docSlot(classIdx)
	return e.splice(from, to, reindent(doc, structure.LeadingWhitespace(e.lines[classIdx]))), nil
}

// classLine locates the type declaration a class doc-comment belongs to:
// the enclosing one, else the next one at or below the target.
func (e *edit) classLine() int {
	if e.sc.InClass() {
		return e.sc.ClassLine - 1
	}
	for i := e.target - 1; i < len(e.lines) && i <= e.target-1+e.limit; i++ {
		if _, ok := structure.ClassDeclaration(e.lines[i]); ok {
			return i
		}
	}
	return -1
}

func (e *edit) memberDocblock() ([]string, error) {
	doc := docLines(e.payload)
	rest := e.payload[len(doc):]
	idx := e.target - 1
	if len(rest) > 0 && !sameCode(rest, e.lines[idx]) {
		doc = e.payload
	}
	from, to := e.docSlot(idx)
	return e.splice(from, to, reindent(doc, anchorIndent(e.lines, idx))), nil
}

// docSlot returns the span a doc-comment for the declaration at idx
// occupies: above any attribute lines, covering an existing doc-comment
// directly above so it is replaced rather than duplicated.
func (e *edit) docSlot(idx int) (int, int) {
	at := idx
	for at > 0 && strings.HasPrefix(strings.TrimSpace(e.lines[at-1]), "#[") {
		at--
	}
	if at == 0 || !strings.HasSuffix(strings.TrimSpace(e.lines[at-1]), "*/") {
		return at, at
	}
	// walk back through the one comment block that ends above; only a
	// doc-comment opener makes it replaceable
	for start := at - 1; start >= 0; start-- {
		t := strings.TrimSpace(e.lines[start])
		switch {
		case strings.HasPrefix(t, "/**"):
			return start, at
		case strings.HasPrefix(t, "/*"):
			return at, at
		case strings.HasPrefix(t, "*"):
			continue
		default:
			return at, at
		}
	}
	return at, at
}

func (e *edit) afterClassBrace() ([]string, error) {
	classIdx := e.sc.ClassLine - 1
	brace := structure.FindOpeningBrace(e.lines, classIdx, e.limit)
	if brace < 0 {
		return nil, domain.PlacementError(fmt.Sprintf(
			"no opening brace within %d lines of the declaration of %s", e.limit, e.sc.EnclosingName))
	}
	block := reindent(e.payload, e.sc.ClassIndent+e.unit)
	if next := brace + 1; next < len(e.lines) && !structure.IsBlank(e.lines[next]) &&
		!strings.HasPrefix(strings.TrimSpace(e.lines[next]), "}") {
		block = append(block, "")
	}
	return e.splice(brace+1, brace+1, block), nil
}

func (e *edit) methodBody() ([]string, error) {
	if !e.sc.InClass() {
		return e.generic()
	}
	decl := e.locateMethod()
	if decl < 0 {
		return e.classMember()
	}
	end := structure.FindBlockEnd(e.lines, decl)
	if end < 0 {
		name, _ := structure.MethodDeclaration(e.lines[decl])
		return nil, domain.PlacementError(fmt.Sprintf("could not find the end of method %s", name))
	}
	block := reindent(e.payload, structure.LeadingWhitespace(e.lines[decl]))

	if e.desc.Kind == domain.FixInsert {
		return e.splice(end+1, end+1, append([]string{""}, block...)), nil
	}

	start := decl
	payloadDoc, _ := placement.SplitDocblock(e.desc.Code)
	if payloadDoc != "" || hasAttribute(e.payload) {
		start, _ = e.docSlot(decl)
		if payloadDoc == "" {
			// keep the existing doc-comment, replace only the attributes
			for start < decl && !strings.HasPrefix(strings.TrimSpace(e.lines[start]), "#[") {
				start++
			}
		}
	}
	return e.splice(start, end+1, block), nil
}

// locateMethod finds the method a full-body payload targets: the method of
// the same name in the enclosing class, else the nearest declaration at or
// above the target. Inserts always anchor on the nearest declaration.
func (e *edit) locateMethod() int {
	classIdx := e.sc.ClassLine - 1
	if e.desc.Kind != domain.FixInsert {
		if name := placement.MethodName(e.desc.Code); name != "" {
			classEnd := structure.FindBlockEnd(e.lines, classIdx)
			if classEnd < 0 {
				classEnd = len(e.lines) - 1
			}
			for i := classIdx + 1; i <= classEnd; i++ {
				if found, ok := structure.MethodDeclaration(e.lines[i]); ok && found == name {
					return i
				}
			}
		}
	}
	if e.sc.MethodLine > 0 {
		return e.sc.MethodLine - 1
	}
	for i := e.target - 1; i > classIdx; i-- {
		if _, ok := structure.MethodDeclaration(e.lines[i]); ok {
			return i
		}
	}
	return -1
}

func (e *edit) classMember() ([]string, error) {
	if !e.sc.InClass() {
		return e.generic()
	}
	if e.sc.Kind == domain.EnclosingMethodBody {
		if e.desc.Kind != domain.FixInsert {
			return nil, domain.PlacementError(fmt.Sprintf(
				"a class member cannot replace code inside method %s", e.sc.MethodName))
		}
		return e.afterClassBrace()
	}

	base := e.sc.ClassIndent + e.unit
	if brace := structure.FindOpeningBrace(e.lines, e.sc.ClassLine-1, e.limit); brace >= 0 {
		for i := brace + 1; i < len(e.lines); i++ {
			t := strings.TrimSpace(e.lines[i])
			if t == "" {
				continue
			}
			if !strings.HasPrefix(t, "}") {
				base = structure.LeadingWhitespace(e.lines[i])
			}
			break
		}
	}
	return e.onAffected(reindent(e.payload, base)), nil
}

func (e *edit) generic() ([]string, error) {
	first, _ := e.affected()
	return e.onAffected(reindent(e.payload, anchorIndent(e.lines, first-1))), nil
}

// affected returns the 1-based lines the fix operates on and the first one.
func (e *edit) affected() (int, []int) {
	if len(e.desc.AffectedLines) == 0 {
		return e.target, []int{e.target}
	}
	return e.desc.AffectedLines[0], e.desc.AffectedLines
}

// onAffected removes the affected lines for replace and delete, and puts
// block at the first of them for replace and insert.
func (e *edit) onAffected(block []string) []string {
	first, affected := e.affected()
	drop := make(map[int]bool, len(affected))
	if e.desc.Kind != domain.FixInsert {
		for _, l := range affected {
			drop[l-1] = true
		}
	}

	out := make([]string, 0, len(e.lines)+len(block))
	for i, line := range e.lines {
		if i == first-1 && e.desc.Kind != domain.FixDelete {
			out = append(out, block...)
		}
		if !drop[i] {
			out = append(out, line)
		}
	}
	return out
}

// anchorIndent is the indentation of the first non-blank line at or after
// idx, so blank target lines take the indentation of what follows.
func anchorIndent(lines []string, idx int) string {
	for i := idx; i < len(lines); i++ {
		if !structure.IsBlank(lines[i]) {
			if strings.HasPrefix(strings.TrimSpace(lines[i]), "}") && i > idx {
				break
			}
			return structure.LeadingWhitespace(lines[i])
		}
	}
	if idx > 0 {
		return structure.LeadingWhitespace(lines[idx-1])
	}
	return ""
}

// docLines returns the leading doc-comment of payload.
func docLines(payload []string) []string {
	for i, l := range payload {
		if strings.Contains(l, "*/") {
			return payload[:i+1]
		}
	}
	return payload
}

func hasAttribute(payload []string) bool {
	for _, l := range payload {
		if strings.HasPrefix(strings.TrimSpace(l), "#[") {
			return true
		}
	}
	return false
}

// sameCode reports whether rest is a copy of line, ignoring whitespace and
// a trailing opening brace.
func sameCode(rest []string, line string) bool {
	norm := func(s string) string {
		s = strings.Join(strings.Fields(s), " ")
		return strings.TrimSpace(strings.TrimSuffix(s, "{"))
	}
	return norm(strings.Join(rest, " ")) == norm(line)
}
