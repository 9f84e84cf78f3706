// Package bootstrap wires the outbound adapters into a ready FixService for
// the CLI and MCP entry points.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/backup"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/config"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/gitinfo"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/issuestore"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/syntax"
	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/workspace"
	"github.com/rafaelogic/codesnoutr-sub001/internal/application"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/patch"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/structure"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/validation"
)

// Engine is the fix pipeline for one project plus the stores behind it.
type Engine struct {
	Root    string
	Config  domain.Config
	Issues  *issuestore.Store
	Backups *backup.Store
	Fixes   *application.FixService
}

// Open loads the project configuration under projectPath and opens its
// issue store. Callers must Close the engine.
func Open(projectPath string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.New().Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	issues, err := issuestore.Open(cfg.StorePath())
	if err != nil {
		return nil, err
	}
	var git domain.GitInfo
	if r := gitinfo.New(); r.IsGitRepo(root) {
		git = r
	}
	backups := backup.New(cfg.BackupDir(), git)

	validator := validation.New(cfg)
	fixes := application.NewFixService(
		workspace.New(),
		backups,
		issues,
		structure.New(cfg.ContextWindow()),
		patch.New(cfg),
		syntax.New(cfg, logger),
		validator,
		logger,
	)
	logger.Debug("engine ready",
		slog.String("root", root),
		slog.String("store", cfg.StorePath()),
		slog.String("backups", cfg.BackupDir()),
		slog.Bool("git", git != nil),
		slog.Any("conventions", validator.Rules()))

	return &Engine{Root: root, Config: cfg, Issues: issues, Backups: backups, Fixes: fixes}, nil
}

// Close releases the issue store.
func (e *Engine) Close() error {
	return e.Issues.Close()
}

// Resolve makes path absolute relative to the project root.
func (e *Engine) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.Root, path)
}

// IssueFor returns the stored issue with id, or an unsaved issue for the
// given file and line when id is zero.
func (e *Engine) IssueFor(ctx context.Context, id int64, file string, line int) (*domain.Issue, error) {
	if id != 0 {
		return e.Issues.Get(ctx, id)
	}
	if file == "" || line < 1 {
		return nil, fmt.Errorf("either an issue id or a file and a line >= 1 is required")
	}
	return &domain.Issue{FilePath: e.Resolve(file), Line: line}, nil
}
