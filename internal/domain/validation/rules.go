package validation

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/fatih/camelcase"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
)

// ConventionRule is a project convention a fix must not violate.
type ConventionRule struct {
	Name     string
	Message  string
	Violates func(in Input) bool
}

// Built-in convention rule names, usable in validation.disabled_conventions.
const (
	ConventionMemberVisibility = "member-visibility"
	ConventionMethodNaming     = "method-naming"
	ConventionTestMethodPrefix = "test-method-prefix"
)

// testLifecycle are PHPUnit hooks that are public but are not tests.
var testLifecycle = map[string]bool{
	"setUp":              true,
	"tearDown":           true,
	"setUpBeforeClass":   true,
	"tearDownAfterClass": true,
}

// BuiltinRules returns the convention rules every Validator starts with.
func BuiltinRules() []ConventionRule {
	return []ConventionRule{
		{
			Name:     ConventionMemberVisibility,
			Message:  "methods declared in a class body must state their visibility",
			Violates: missingVisibility,
		},
		{
			Name:     ConventionMethodNaming,
			Message:  "method names must be camelCase",
			Violates: badMethodName,
		},
		{
			Name:     ConventionTestMethodPrefix,
			Message:  "public methods in test classes must start with \"test\" or carry @test",
			Violates: untaggedTestMethod,
		},
	}
}

// declaredMethod is a method declaration found in a fix payload.
type declaredMethod struct {
	name    string
	visible bool
	public  bool
	tagged  bool
}

// declaredMethods lists the methods a payload declares, noting whether the
// comment or attribute lines right above each mark it as a test.
func declaredMethods(code string) []declaredMethod {
	var out []declaredMethod
	tagged := false
	for _, line := range strings.Split(code, "\n") {
		t := strings.TrimSpace(line)
		if strings.Contains(t, "@test") || strings.HasPrefix(t, "#[Test") {
			tagged = true
		}
		name, ok := structure.MethodDeclaration(line)
		if !ok {
			if t != "" && !structure.IsCommentLine(line) && !strings.HasPrefix(t, "#[") {
				tagged = false
			}
			continue
		}
		_, visible := structure.VisibleMethodDeclaration(line)
		out = append(out, declaredMethod{
			name:    name,
			visible: visible,
			public:  visible && strings.Contains(t, "public "),
			tagged:  tagged,
		})
		tagged = false
	}
	return out
}

func inClassScope(in Input) bool {
	return in.Context.Kind == domain.EnclosingClassBody || in.Placement.IsClassLevel()
}

func missingVisibility(in Input) bool {
	if !inClassScope(in) {
		return false
	}
	for _, m := range declaredMethods(in.Descriptor.Code) {
		if !m.visible {
			return true
		}
	}
	return false
}

func badMethodName(in Input) bool {
	if !inClassScope(in) || isTestFile(in.Source.Path) {
		return false
	}
	for _, m := range declaredMethods(in.Descriptor.Code) {
		if !IsCamelCase(m.name) {
			return true
		}
	}
	return false
}

func untaggedTestMethod(in Input) bool {
	if !inClassScope(in) || !isTestFile(in.Source.Path) {
		return false
	}
	for _, m := range declaredMethods(in.Descriptor.Code) {
		if !m.public || m.tagged || testLifecycle[m.name] {
			continue
		}
		if !strings.HasPrefix(m.name, "test") {
			return true
		}
	}
	return false
}

// IsCamelCase reports whether name is lowerCamelCase. Magic methods ("__get")
// are exempt.
func IsCamelCase(name string) bool {
	if strings.HasPrefix(name, "__") {
		return true
	}
	if name == "" {
		return false
	}
	words := camelcase.Split(name)
	if len(words) == 0 || words[0] == "" || !unicode.IsLower(rune(words[0][0])) {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

func isTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "Test.php")
}
