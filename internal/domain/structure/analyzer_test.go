package structure_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
)

const controllerPath = "../../../testdata/php/UserController.php"

func controllerLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(controllerPath)
	require.NoError(t, err)
	return domain.ParseSource(controllerPath, string(data)).Lines
}

func TestAnalyze_Controller(t *testing.T) {
	lines := controllerLines(t)
	a := structure.New(50)

	tests := []struct {
		name       string
		target     int
		kind       domain.EnclosingKind
		enclosing  string
		indent     string
		method     string
		isDeclLine bool
	}{
		{name: "namespace line", target: 3, kind: domain.EnclosingFileLevel},
		{name: "class declaration", target: 8, kind: domain.EnclosingClassBody, enclosing: "UserController", isDeclLine: true},
		{name: "array element", target: 11, kind: domain.EnclosingArrayLiteral, indent: "        "},
		{name: "after array", target: 14, kind: domain.EnclosingClassBody, enclosing: "UserController"},
		{name: "method declaration", target: 15, kind: domain.EnclosingClassBody, enclosing: "UserController", indent: "    ", method: "index"},
		{name: "statement in method", target: 17, kind: domain.EnclosingMethodBody, enclosing: "index", indent: "        ", method: "index"},
		{name: "chained call", target: 20, kind: domain.EnclosingMethodBody, enclosing: "index", indent: "            ", method: "index"},
		{name: "other method", target: 26, kind: domain.EnclosingMethodBody, enclosing: "show", indent: "        ", method: "show"},
		{name: "class closing brace", target: 33, kind: domain.EnclosingClassBody, enclosing: "UserController"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := a.Analyze(lines, tt.target)
			assert.Equal(t, tt.kind, sc.Kind)
			assert.Equal(t, tt.enclosing, sc.EnclosingName)
			assert.Equal(t, tt.indent, sc.Indentation)
			assert.Equal(t, tt.method, sc.MethodName)
			assert.Equal(t, tt.isDeclLine, sc.IsDeclarationLine)
		})
	}
}

func TestAnalyze_ClassPosition(t *testing.T) {
	sc := structure.New(0).Analyze(controllerLines(t), 26)
	assert.Equal(t, 8, sc.ClassLine)
	assert.Equal(t, "", sc.ClassIndent)
	assert.Equal(t, 24, sc.MethodLine)
	assert.True(t, sc.InClass())
}

func TestAnalyze_OutOfRange(t *testing.T) {
	a := structure.New(50)
	lines := []string{"<?php", "echo 1;"}

	assert.Equal(t, domain.EnclosingUnknown, a.Analyze(lines, 0).Kind)
	assert.Equal(t, domain.EnclosingUnknown, a.Analyze(lines, 3).Kind)
	assert.Equal(t, domain.EnclosingUnknown, a.Analyze(nil, 1).Kind)
}

func TestAnalyze_ArrayRespectsWindow(t *testing.T) {
	lines := strings.Split("$config = [\n    'a' => 1,\n    'b' => 2,\n    'c' => 3,\n];", "\n")

	assert.Equal(t, domain.EnclosingArrayLiteral, structure.New(50).Analyze(lines, 4).Kind)
	assert.Equal(t, domain.EnclosingFileLevel, structure.New(2).Analyze(lines, 4).Kind)
}

func TestAnalyze_BracketsInCommentsAndStrings(t *testing.T) {
	lines := strings.Split("function f()\n{\n    // see [docs\n    $s = '[';\n    return 1;\n}", "\n")
	sc := structure.New(50).Analyze(lines, 5)
	assert.Equal(t, domain.EnclosingFileLevel, sc.Kind)
}

func TestAnalyze_ClosedClassIsNotEnclosing(t *testing.T) {
	lines := strings.Split("class A\n{\n}\n\nfunction helper()\n{\n    return 1;\n}", "\n")
	sc := structure.New(50).Analyze(lines, 7)
	assert.Equal(t, domain.EnclosingFileLevel, sc.Kind)
}

func TestAnalyze_AbstractMethodHasNoBody(t *testing.T) {
	src := "abstract class Repo\n{\n    abstract public function find($id);\n\n    protected $table;\n}"
	sc := structure.New(50).Analyze(strings.Split(src, "\n"), 5)
	assert.Equal(t, domain.EnclosingClassBody, sc.Kind)
	assert.Equal(t, "Repo", sc.EnclosingName)
}

func TestAnalyze_InterfaceAndTrait(t *testing.T) {
	a := structure.New(50)
	for _, decl := range []string{"interface Payable", "trait Payable", "final class Payable", "enum Payable: string"} {
		lines := []string{decl, "{", "    public function pay();", "}"}
		sc := a.Analyze(lines, 3)
		assert.Equal(t, domain.EnclosingClassBody, sc.Kind, decl)
		assert.Equal(t, "Payable", sc.EnclosingName, decl)
	}
}

func TestScanHelpers(t *testing.T) {
	name, ok := structure.VisibleMethodDeclaration("    public static function boot()")
	assert.True(t, ok)
	assert.Equal(t, "boot", name)

	_, ok = structure.VisibleMethodDeclaration("    function boot()")
	assert.False(t, ok)

	assert.Equal(t, 1, structure.BraceDelta(`if ($a) { $s = "}";`))
	assert.Equal(t, 0, structure.BracketDelta(`$a = ['x']; // [`))
	assert.True(t, structure.IsCommentLine("     * @return void"))
	assert.False(t, structure.IsCommentLine("    #[Override]"))

	lines := []string{"function a()", "{", "    if (1) {", "    }", "}", "after"}
	assert.Equal(t, 1, structure.FindOpeningBrace(lines, 0, 10))
	assert.Equal(t, 4, structure.FindBlockEnd(lines, 0))
	assert.Equal(t, -1, structure.FindBlockEnd([]string{"function a() {"}, 0))
}

func TestFindBlockEnd_BodylessDeclaration(t *testing.T) {
	lines := []string{
		"    abstract public function foo();",
		"",
		"    public function bar()",
		"    {",
		"        return 2;",
		"    }",
	}
	assert.Equal(t, 0, structure.FindBlockEnd(lines, 0))
	assert.Equal(t, 5, structure.FindBlockEnd(lines, 2))

	multiline := []string{
		"    abstract protected function baz(",
		"        int $a,",
		"        string $b = ';'",
		"    ): void;",
		"    public function qux() {}",
	}
	assert.Equal(t, 3, structure.FindBlockEnd(multiline, 0))

	signature := []string{
		"    public function quux(",
		"        int $a",
		"    ): int {",
		"        return $a;",
		"    }",
	}
	assert.Equal(t, 4, structure.FindBlockEnd(signature, 0))
}
