package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/backup"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/issuestore"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/syntax"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/workspace"
	"github.com/rafaelogic/codesnoutr-sub001/internal/application"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/patch"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/validation"
)

const controllerFixture = "../../testdata/php/UserController.php"

type checkerFunc func(ctx context.Context, content, fileKind string) error

func (f checkerFunc) Check(ctx context.Context, content, fileKind string) error {
	return f(ctx, content, fileKind)
}

type env struct {
	svc     *application.FixService
	backups *backup.Store
	issues  *issuestore.Store
	path    string
	orig    []byte
}

// newEnv copies the controller fixture into a temp project and wires the
// service with real adapters. checker replaces the syntax checker when set.
func newEnv(t *testing.T, checker domain.SyntaxChecker) *env {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.ReadFile(controllerFixture)
	require.NoError(t, err)
	path := filepath.Join(dir, "app", "Http", "Controllers", "UserController.php")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, orig, 0o644))

	cfg := domain.DefaultConfig()
	if checker == nil {
		checker = syntax.New(cfg, nil)
	}
	store, err := issuestore.Open(filepath.Join(dir, domain.DefaultStorePath))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	backups := backup.New(filepath.Join(dir, domain.DefaultBackupDir), nil)

	svc := application.NewFixService(
		workspace.New(),
		backups,
		store,
		structure.New(cfg.ContextWindow()),
		patch.New(cfg),
		checker,
		validation.New(cfg),
		nil,
	)
	return &env{svc: svc, backups: backups, issues: store, path: path, orig: orig}
}

func (e *env) issue(t *testing.T, line int) *domain.Issue {
	t.Helper()
	issue := &domain.Issue{FilePath: e.path, Line: line, Category: "quality", Severity: domain.SeverityMedium}
	_, err := e.issues.Create(context.Background(), issue)
	require.NoError(t, err)
	return issue
}

func (e *env) current(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.path)
	require.NoError(t, err)
	return string(data)
}

// modelResponse renders a fix the way a model would return it.
func modelResponse(t *testing.T, code, kind string, lines ...int) string {
	t.Helper()
	obj := map[string]any{
		"code":             code,
		"explanation":      "suggested fix",
		"confidence":       0.9,
		"safe_to_automate": true,
		"kind":             kind,
	}
	if len(lines) > 0 {
		obj["affected_lines"] = lines
	}
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return "Here is the fix:\n```json\n" + string(data) + "\n```"
}

var indexMethod = strings.Join([]string{
	"public function index(Request $request)",
	"{",
	"    return User::query()",
	"        ->where('active', true)",
	"        ->orderBy('name')",
	"        ->paginate(15);",
	"}",
}, "\n")

func TestApplyFix_CombinedClassDocblock(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 8)

	res := e.svc.ApplyFix(context.Background(), issue,
		modelResponse(t, "/**\n * Class UserController\n */\nclass UserController extends Controller", "insert"))

	require.True(t, res.Success, res.Message)
	assert.Equal(t, domain.PlacementClassDocblock, res.Placement)
	assert.NotEmpty(t, res.BackupReference)
	require.NotNil(t, res.Preview)
	assert.Positive(t, res.Preview.TotalChanges)

	got := e.current(t)
	assert.Equal(t, 1, strings.Count(got, "class UserController"))
	assert.Contains(t, got, " * Class UserController\n */\nclass UserController extends Controller\n{")

	assert.True(t, issue.Metadata.Fixed)
	assert.Equal(t, res.BackupReference, issue.Metadata.BackupReference)
	require.NotNil(t, issue.Metadata.FixedAt)
}

func TestApplyFix_ReturnChainRejected(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 21)

	res := e.svc.ApplyFix(context.Background(), issue, modelResponse(t, "return x;", "replace"))

	assert.False(t, res.Success)
	assert.Equal(t, domain.KindValidation, res.ErrorKind)
	assert.Contains(t, res.Message, "return")
	assert.Equal(t, string(e.orig), e.current(t))
	assert.False(t, issue.Metadata.Fixed)
}

func TestApplyFix_UnparseableResponse(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 17)

	res := e.svc.ApplyFix(context.Background(), issue, "This is not valid JSON {broken")

	assert.False(t, res.Success)
	assert.Equal(t, domain.KindNormalization, res.ErrorKind)
	assert.Equal(t, string(e.orig), e.current(t))
}

func TestApplyFix_ClassMemberInArrayRejected(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 11)
	raw := modelResponse(t, "public $x;", "replace")

	first := e.svc.ApplyFix(context.Background(), issue, raw)
	second := e.svc.ApplyFix(context.Background(), issue, raw)

	for _, res := range []domain.ApplyResult{first, second} {
		assert.False(t, res.Success)
		assert.Equal(t, domain.KindValidation, res.ErrorKind)
		assert.Equal(t, domain.EnclosingArrayLiteral, res.Enclosing)
		assert.Equal(t, domain.PlacementClassMember, res.Placement)
	}
	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, string(e.orig), e.current(t))

	backups, err := e.backups.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestApplyFix_FullMethodReplacement(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 15)

	res := e.svc.ApplyFix(context.Background(), issue, modelResponse(t, indexMethod, "replace"))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, domain.PlacementFullMethodBody, res.Placement)

	got := e.current(t)
	assert.Equal(t, 1, strings.Count(got, "function index("))
	assert.Contains(t, got, "            ->paginate(15);\n    }\n\n    public function show($id)")
	assert.NotContains(t, got, "$query = User::query();")
	assert.Contains(t, got, "return User::findOrFail($id);")
	assert.Contains(t, got, "return $this->belongsTo(User::class);")
	assert.True(t, strings.HasSuffix(got, "}\n"))

	assert.NoError(t, syntax.New(domain.DefaultConfig(), nil).Check(context.Background(), got, "php"))
}

func TestRestore_RoundTrip(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 15)
	ctx := context.Background()

	res := e.svc.ApplyFix(ctx, issue, modelResponse(t, indexMethod, "replace"))
	require.True(t, res.Success, res.Message)
	require.NotEqual(t, string(e.orig), e.current(t))

	ok, err := e.svc.Restore(ctx, issue)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, string(e.orig), e.current(t))
	assert.False(t, issue.Metadata.Fixed)
	assert.Nil(t, issue.Metadata.FixedAt)

	stored, err := e.issues.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.False(t, stored.Metadata.Fixed)
	assert.Equal(t, res.BackupReference, stored.Metadata.BackupReference)
}

func TestRestore_WithoutBackup(t *testing.T) {
	e := newEnv(t, nil)

	ok, err := e.svc.Restore(context.Background(), &domain.Issue{FilePath: e.path, Line: 3})
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrNoBackup)
	assert.Equal(t, domain.KindBackup, domain.KindOf(err))
}

func TestRestore_BackupForAnotherFile(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 15)
	res := e.svc.ApplyFix(context.Background(), issue, modelResponse(t, indexMethod, "replace"))
	require.True(t, res.Success, res.Message)

	other := &domain.Issue{FilePath: filepath.Join(filepath.Dir(e.path), "Other.php"), Line: 1}
	other.Metadata.BackupReference = res.BackupReference

	ok, err := e.svc.Restore(context.Background(), other)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to")
}

func TestApplyFix_SyntaxFailureLeavesFileUntouched(t *testing.T) {
	failing := checkerFunc(func(context.Context, string, string) error {
		return domain.NewFixError(domain.KindSyntax, "Parse error: unexpected '}' in patched file on line 20", nil)
	})
	e := newEnv(t, failing)
	issue := e.issue(t, 15)

	res := e.svc.ApplyFix(context.Background(), issue, modelResponse(t, indexMethod, "replace"))

	assert.False(t, res.Success)
	assert.Equal(t, domain.KindSyntax, res.ErrorKind)
	assert.Contains(t, res.Message, "Parse error")
	assert.Equal(t, string(e.orig), e.current(t))

	backups, err := e.backups.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)

	entries, err := os.ReadDir(filepath.Dir(e.path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestApplyFix_PlainCheckerErrorIsSyntaxKind(t *testing.T) {
	e := newEnv(t, checkerFunc(func(context.Context, string, string) error {
		return errors.New("boom")
	}))

	res := e.svc.ApplyFix(context.Background(), e.issue(t, 15), modelResponse(t, indexMethod, "replace"))
	assert.False(t, res.Success)
	assert.Equal(t, domain.KindSyntax, res.ErrorKind)
}

func TestApplyFix_ExternalEditAborts(t *testing.T) {
	var path string
	editing := checkerFunc(func(context.Context, string, string) error {
		return os.WriteFile(path, []byte("<?php\n// edited elsewhere\n"), 0o644)
	})
	e := newEnv(t, editing)
	path = e.path
	issue := e.issue(t, 15)

	res := e.svc.ApplyFix(context.Background(), issue, modelResponse(t, indexMethod, "replace"))

	assert.False(t, res.Success)
	assert.Equal(t, domain.KindIO, res.ErrorKind)
	assert.Contains(t, res.Message, domain.ErrContentChanged.Error())
	assert.Equal(t, "<?php\n// edited elsewhere\n", e.current(t))
	assert.False(t, issue.Metadata.Fixed)
}

func TestApplyFix_MissingFile(t *testing.T) {
	e := newEnv(t, nil)
	issue := &domain.Issue{FilePath: filepath.Join(filepath.Dir(e.path), "Missing.php"), Line: 1}

	res := e.svc.ApplyFix(context.Background(), issue, modelResponse(t, "$a = 1;", "insert"))
	assert.False(t, res.Success)
	assert.Equal(t, domain.KindIO, res.ErrorKind)
}

func TestApplyFix_LowConfidence(t *testing.T) {
	e := newEnv(t, nil)
	raw := `{"code": "$a = 1;", "kind": "insert", "confidence": 0.1}`

	res := e.svc.ApplyFix(context.Background(), e.issue(t, 17), raw)
	assert.False(t, res.Success)
	assert.Equal(t, domain.KindValidation, res.ErrorKind)
	assert.Contains(t, res.Message, "below the minimum")
}

func TestApplyFix_JournalsAttempts(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 15)
	ctx := context.Background()

	e.svc.ApplyFix(ctx, issue, "not json")
	res := e.svc.ApplyFix(ctx, issue, modelResponse(t, indexMethod, "replace"))
	require.True(t, res.Success, res.Message)

	attempts, err := e.svc.Attempts(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].Success)
	assert.Equal(t, domain.KindNormalization, attempts[0].ErrorKind)
	assert.True(t, attempts[1].Success)
	assert.Equal(t, res.BackupReference, attempts[1].BackupReference)

	stored, err := e.issues.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.True(t, stored.Metadata.Fixed)
	assert.Equal(t, res.BackupReference, stored.Metadata.BackupReference)
}

func TestPreview_DoesNotWrite(t *testing.T) {
	e := newEnv(t, nil)
	issue := e.issue(t, 29)
	desc := domain.FixDescriptor{
		Code:       "/**\n * Get the owning user.\n */",
		Kind:       domain.FixInsert,
		Confidence: 0.8,
	}

	diff, err := e.svc.Preview(context.Background(), issue, desc)
	require.NoError(t, err)
	require.NotNil(t, diff)
	assert.Equal(t, 3, diff.TotalChanges)
	assert.Equal(t, 29, diff.Changes[0].Line)
	assert.Equal(t, "    /**", diff.Changes[0].Modified)

	assert.Equal(t, string(e.orig), e.current(t))
	backups, err := e.backups.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestPreview_Rejection(t *testing.T) {
	e := newEnv(t, nil)
	desc := domain.FixDescriptor{Code: "public $x;", Kind: domain.FixReplace, Confidence: 0.9}

	_, err := e.svc.Preview(context.Background(), &domain.Issue{FilePath: e.path, Line: 11}, desc)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, validation.RuleArrayContext, domain.RuleOf(err))
}

func TestApplyDescriptor_WithoutIssueStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  context_window: 50\n"), 0o644))

	cfg := domain.DefaultConfig()
	svc := application.NewFixService(
		workspace.New(),
		backup.New(filepath.Join(dir, "backups"), nil),
		nil,
		structure.New(cfg.ContextWindow()),
		patch.New(cfg),
		syntax.New(cfg, nil),
		validation.New(cfg),
		nil,
	)
	issue := &domain.Issue{FilePath: path, Line: 2}

	bad := svc.ApplyDescriptor(context.Background(), issue, domain.FixDescriptor{
		Code: "context_window: [", Kind: domain.FixReplace, Confidence: 1,
	})
	assert.False(t, bad.Success)
	assert.Equal(t, domain.KindSyntax, bad.ErrorKind)

	good := svc.ApplyDescriptor(context.Background(), issue, domain.FixDescriptor{
		Code: "context_window: 80", Kind: domain.FixReplace, Confidence: 1,
	})
	require.True(t, good.Success, good.Message)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "engine:\n  context_window: 80\n", string(data))

	attempts, err := svc.Attempts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
