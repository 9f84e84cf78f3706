// Package normalize recovers a structured fix descriptor from the free-form
// text a model returns. Parsing runs in stages, each a little more invasive
// than the last, and stops at the first stage that yields a JSON object.
package normalize

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

var (
	// ErrUnparseable is returned when no stage produced a JSON object.
	ErrUnparseable = errors.New("response is not parseable as a fix object")
	// ErrMissingField is returned when the object lacks code or kind.
	ErrMissingField = errors.New("required field missing")
)

// Stage identifies which repair stage produced the parsed object.
type Stage int

const (
	StageDirect Stage = iota + 1
	StageExtracted
	StageSanitized
	StagePrintable
)

func (s Stage) String() string {
	switch s {
	case StageDirect:
		return "direct"
	case StageExtracted:
		return "extracted"
	case StageSanitized:
		return "sanitized"
	case StagePrintable:
		return "printable"
	default:
		return "none"
	}
}

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")

// Normalize parses raw model output into a FixDescriptor.
func Normalize(raw string) (*domain.FixDescriptor, error) {
	desc, _, err := NormalizeWithStage(raw)
	return desc, err
}

// NormalizeWithStage is Normalize that also reports the stage that succeeded.
func NormalizeWithStage(raw string) (*domain.FixDescriptor, Stage, error) {
	err := ErrUnparseable
	for _, text := range candidates(raw) {
		obj, stage, ok := stages(text)
		if !ok {
			continue
		}
		desc, cerr := coerce(obj)
		if cerr != nil {
			err = cerr
			continue
		}
		return desc, stage, nil
	}
	return nil, 0, domain.NewFixError(domain.KindNormalization, "", err)
}

// candidates returns the texts the stages run on, in order. A fence that
// opens before any object wraps the response; one that opens later sits
// inside the object's strings, so the whole text goes first.
func candidates(raw string) []string {
	text := strings.TrimPrefix(raw, "\ufeff")
	text = strings.TrimSpace(text)

	fenced := unfence(text)
	switch {
	case fenced == text:
		return []string{text}
	case fenceFirst(text):
		return []string{fenced, text}
	default:
		return []string{text, fenced}
	}
}

func stages(text string) (map[string]any, Stage, bool) {
	if obj, ok := parseObject(text); ok {
		return obj, StageDirect, true
	}

	candidate := text
	if extracted := extractBalanced(text); extracted != "" {
		if obj, ok := parseObject(extracted); ok {
			return obj, StageExtracted, true
		}
		candidate = extracted
	}

	sanitized := sanitize(candidate)
	if obj, ok := parseObject(sanitized); ok {
		return obj, StageSanitized, true
	}

	if obj, ok := parseObject(stripNonPrintable(sanitized)); ok {
		return obj, StagePrintable, true
	}
	return nil, 0, false
}

func fenceFirst(text string) bool {
	fence := strings.Index(text, "```")
	if fence < 0 {
		return false
	}
	brace := strings.IndexByte(text, '{')
	return brace < 0 || fence < brace
}

// unfence returns the contents of the first fenced code block. An opening
// fence with no closing fence is dropped along with its info string.
func unfence(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			return strings.TrimSpace(text[i+1:])
		}
		return ""
	}
	return text
}

// parseObject accepts a JSON object, or an array whose first element is one.
func parseObject(text string) (map[string]any, bool) {
	if text == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		if len(t) > 0 {
			if obj, ok := t[0].(map[string]any); ok {
				return obj, true
			}
		}
	}
	return nil, false
}

// extractBalanced returns the text from the first '{' to the brace that
// brings the nesting depth back to zero. Braces inside strings count too.
func extractBalanced(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
