// Package validation rejects fixes that are malformed or that would land in
// the wrong place. It runs in two passes: a shape pass over the descriptor
// alone, and a context pass once the target file has been analyzed.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
)

// Rule names reported through domain.FixError.Rule.
const (
	RuleEmptyCode     = "empty_code"
	RuleUnknownKind   = "unknown_kind"
	RuleLowConfidence = "low_confidence"
	RuleLineBounds    = "line_bounds"
	RuleArrayContext  = "array_context"
	RuleMissingReturn = "missing_return"
	RuleConfusable    = "confusable_transformation"
)

var returnKeyword = regexp.MustCompile(`\breturn\b`)

// DefaultConfusablePairs are call substitutions that change meaning while
// looking like a cosmetic edit.
var DefaultConfusablePairs = []domain.ConfusablePair{
	{From: "->where(", To: "->orWhere(", Message: "replacing where() with orWhere() widens the query"},
	{From: "->filter(", To: "->map(", Message: "replacing filter() with map() keeps every element"},
	{From: "->whereIn(", To: "->whereNotIn(", Message: "replacing whereIn() with whereNotIn() inverts the query"},
	{From: "->first(", To: "->get(", Message: "replacing first() with get() returns a collection instead of a model"},
	{From: "array_filter(", To: "array_map(", Message: "replacing array_filter() with array_map() keeps every element"},
	{From: "->count(", To: "->sum(", Message: "replacing count() with sum() changes what is aggregated"},
}

// Input is everything the context pass looks at.
type Input struct {
	Source     *domain.SourceFile
	Context    domain.StructuralContext
	Placement  domain.PlacementKind
	Descriptor domain.FixDescriptor
	Target     int
}

// Validator runs the shape and context passes.
type Validator struct {
	minConfidence float64
	window        int
	pairs         []domain.ConfusablePair
	rules         []ConventionRule
}

// New builds a Validator from cfg: the default confusable pairs plus any
// configured ones, and the built-in convention rules minus disabled ones.
func New(cfg domain.Config) *Validator {
	v := &Validator{
		minConfidence: cfg.MinConfidence(),
		window:        cfg.ContextWindow(),
	}
	v.pairs = append(v.pairs, DefaultConfusablePairs...)
	v.pairs = append(v.pairs, cfg.Validation.ConfusablePairs...)
	for _, r := range BuiltinRules() {
		if !cfg.IsConventionDisabled(r.Name) {
			v.rules = append(v.rules, r)
		}
	}
	return v
}

// Register appends a convention rule. Rules run in registration order.
func (v *Validator) Register(rule ConventionRule) {
	v.rules = append(v.rules, rule)
}

// Rules returns the names of the active convention rules.
func (v *Validator) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.Name
	}
	return names
}

// ValidateShape checks the descriptor without looking at the target file.
func (v *Validator) ValidateShape(desc domain.FixDescriptor) error {
	if strings.TrimSpace(desc.Code) == "" {
		return domain.ValidationError(RuleEmptyCode, "fix code is empty")
	}
	if !desc.Kind.Valid() {
		return domain.ValidationError(RuleUnknownKind,
			fmt.Sprintf("fix kind %q is not one of replace, insert, delete", desc.Kind))
	}
	if desc.Confidence < v.minConfidence {
		return domain.ValidationError(RuleLowConfidence,
			fmt.Sprintf("confidence %.2f is below the minimum %.2f", desc.Confidence, v.minConfidence))
	}
	return nil
}

// ValidateContext checks the fix against the analyzed target file. The first
// failing check is returned.
func (v *Validator) ValidateContext(in Input) error {
	n := in.Source.LineCount()
	if in.Target < 1 || in.Target > n {
		return domain.ValidationError(RuleLineBounds,
			fmt.Sprintf("target line %d is outside the file (1-%d)", in.Target, n))
	}
	for _, l := range in.Descriptor.AffectedLines {
		if l < 1 || l > n {
			return domain.ValidationError(RuleLineBounds,
				fmt.Sprintf("affected line %d is outside the file (1-%d)", l, n))
		}
	}

	if in.Context.Kind == domain.EnclosingArrayLiteral && in.Placement.IsClassLevel() {
		return domain.ValidationError(RuleArrayContext,
			fmt.Sprintf("%s code cannot be placed inside an array literal", in.Placement))
	}

	if in.Descriptor.Kind == domain.FixReplace {
		if err := v.checkReplace(in); err != nil {
			return err
		}
	}

	for _, r := range v.rules {
		if r.Violates(in) {
			return domain.ValidationError(r.Name, r.Message)
		}
	}
	return nil
}

// checkReplace guards returned statements and confusable call swaps.
func (v *Validator) checkReplace(in Input) error {
	lines := in.Source.Lines[:in.Source.LineCount()]
	first, last := ReplacedSpan(in.Descriptor, in.Target)
	stmtFirst, stmtLast := v.statementSpan(lines, first-1, last-1)

	newHasReturn := hasReturn(strings.Split(in.Descriptor.Code, "\n"))
	windowHasReturn := hasReturn(lines[first-1 : last])
	stmtHasReturn := hasReturn(lines[stmtFirst : stmtLast+1])

	if windowHasReturn && !newHasReturn {
		return domain.ValidationError(RuleMissingReturn,
			"replacement drops the return statement of the replaced code")
	}
	extends := stmtFirst < first-1 || stmtLast > last-1
	if stmtHasReturn && !windowHasReturn && extends && newHasReturn {
		return domain.ValidationError(RuleMissingReturn,
			fmt.Sprintf("lines %d-%d continue a returned call chain that starts on line %d; replacing them with a new return statement would break it",
				first, last, stmtFirst+1))
	}

	original := strings.Join(lines[stmtFirst:stmtLast+1], "\n")
	for _, p := range v.pairs {
		if strings.Contains(original, p.From) &&
			!strings.Contains(in.Descriptor.Code, p.From) &&
			strings.Contains(in.Descriptor.Code, p.To) {
			msg := p.Message
			if msg == "" {
				msg = fmt.Sprintf("replacing %s with %s changes behavior", p.From, p.To)
			}
			return domain.ValidationError(RuleConfusable, msg)
		}
	}
	return nil
}

// ReplacedSpan returns the 1-based first and last line a replace or delete
// covers: the affected lines if any, else the target line.
func ReplacedSpan(desc domain.FixDescriptor, target int) (int, int) {
	if len(desc.AffectedLines) == 0 {
		return target, target
	}
	return desc.AffectedLines[0], desc.AffectedLines[len(desc.AffectedLines)-1]
}

// statementSpan widens the 0-based span [first, last] to whole statements,
// looking at most window lines in each direction.
func (v *Validator) statementSpan(lines []string, first, last int) (int, int) {
	start := first
	for start > 0 && first-start < v.window {
		prev := lines[start-1]
		if structure.IsBlank(prev) || structure.IsTerminator(prev) {
			break
		}
		start--
	}
	end := last
	for end < len(lines)-1 && end-last < v.window && !structure.IsTerminator(lines[end]) {
		end++
	}
	return start, end
}

func hasReturn(lines []string) bool {
	for _, l := range lines {
		if returnKeyword.MatchString(structure.CodePart(l)) {
			return true
		}
	}
	return false
}
