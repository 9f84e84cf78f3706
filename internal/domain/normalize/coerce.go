package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

// coerce maps a decoded object onto a FixDescriptor. Required fields must be
// present; optional ones fall back to conservative defaults.
func coerce(obj map[string]any) (*domain.FixDescriptor, error) {
	code, ok := codeField(obj["code"])
	if !ok {
		return nil, fmt.Errorf("%w: code", ErrMissingField)
	}

	kindRaw, ok := obj["kind"]
	if !ok {
		kindRaw, ok = obj["type"]
	}
	kind, isString := kindRaw.(string)
	if !ok || !isString {
		return nil, fmt.Errorf("%w: kind", ErrMissingField)
	}

	desc := &domain.FixDescriptor{
		Code:           repairCode(code),
		Kind:           domain.FixKind(strings.ToLower(strings.TrimSpace(kind))),
		Confidence:     confidence(obj["confidence"]),
		SafeToAutomate: boolean(obj["safe_to_automate"]),
		AffectedLines:  lines(obj["affected_lines"]),
	}
	if s, ok := obj["explanation"].(string); ok {
		desc.Explanation = s
	}
	return desc, nil
}

// codeField accepts a string or a list of lines.
func codeField(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			s, ok := p.(string)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), true
	}
	return "", false
}

func confidence(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		pct := strings.HasSuffix(s, "%")
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
		if pct {
			f /= 100
		}
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}

func boolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
	case float64:
		return t == 1
	}
	return false
}

// lines collects affected line numbers into a sorted set. It accepts a
// number, numeric strings, "a-b" ranges and lists of any of those.
func lines(v any) []int {
	seen := make(map[int]bool)
	var collect func(any)
	collect = func(v any) {
		switch t := v.(type) {
		case float64:
			if t == math.Trunc(t) {
				seen[int(t)] = true
			}
		case string:
			for _, part := range strings.Split(t, ",") {
				addLineSpec(seen, strings.TrimSpace(part))
			}
		case []any:
			for _, item := range t {
				collect(item)
			}
		}
	}
	collect(v)

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

const maxRangeSpan = 10000

func addLineSpec(seen map[int]bool, part string) {
	if part == "" {
		return
	}
	if lo, hi, ok := strings.Cut(part, "-"); ok && lo != "" {
		a, errA := strconv.Atoi(strings.TrimSpace(lo))
		b, errB := strconv.Atoi(strings.TrimSpace(hi))
		if errA != nil || errB != nil || b < a || b-a > maxRangeSpan {
			return
		}
		for n := a; n <= b; n++ {
			seen[n] = true
		}
		return
	}
	if n, err := strconv.Atoi(part); err == nil {
		seen[n] = true
	}
}
