package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/normalize"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/patch"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/placement"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain/validation"
)

// FixService runs a model-proposed fix through normalization, validation,
// placement and syntax checking, and commits it with a backup.
type FixService struct {
	files     domain.FileStore
	backups   domain.BackupStore
	issues    domain.IssueStore
	analyzer  domain.StructureAnalyzer
	applier   domain.PatchApplier
	checker   domain.SyntaxChecker
	validator *validation.Validator
	logger    *slog.Logger

	locks pathLocks
	now   func() time.Time
}

// NewFixService wires the pipeline. issues may be nil, in which case fix
// state lives only on the Issue values passed in.
func NewFixService(
	files domain.FileStore,
	backups domain.BackupStore,
	issues domain.IssueStore,
	analyzer domain.StructureAnalyzer,
	applier domain.PatchApplier,
	checker domain.SyntaxChecker,
	validator *validation.Validator,
	logger *slog.Logger,
) *FixService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FixService{
		files:     files,
		backups:   backups,
		issues:    issues,
		analyzer:  analyzer,
		applier:   applier,
		checker:   checker,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// plan is a fix applied in memory but not yet committed.
type plan struct {
	src       *domain.SourceFile
	hash      string
	context   domain.StructuralContext
	placement domain.PlacementKind
	modified  string
}

// ApplyFix normalizes raw model output and applies the resulting fix to the
// issue's file. Failures are reported in the result, never as a partial
// write. On success the issue's metadata is updated in place.
func (s *FixService) ApplyFix(ctx context.Context, issue *domain.Issue, raw string) domain.ApplyResult {
	desc, stage, err := normalize.NormalizeWithStage(raw)
	if err != nil {
		res := failure(err)
		s.logger.Warn("fix rejected", slog.String("file", issue.FilePath), slog.String("kind", string(res.ErrorKind)), slog.String("reason", res.Message))
		s.journal(ctx, issue, res)
		return res
	}
	s.logger.Debug("response normalized", slog.String("file", issue.FilePath), slog.String("stage", stage.String()))
	return s.ApplyDescriptor(ctx, issue, *desc)
}

// ApplyDescriptor applies an already structured fix.
func (s *FixService) ApplyDescriptor(ctx context.Context, issue *domain.Issue, desc domain.FixDescriptor) domain.ApplyResult {
	unlock := s.locks.lock(issue.FilePath)
	defer unlock()

	res := s.commit(ctx, issue, desc)
	log := s.logger.With(slog.String("file", issue.FilePath), slog.Int("line", issue.Line))
	if res.Success {
		log.Info("fix applied", slog.String("placement", string(res.Placement)), slog.String("backup", res.BackupReference))
	} else {
		log.Warn("fix rejected", slog.String("kind", string(res.ErrorKind)), slog.String("reason", res.Message))
	}
	s.journal(ctx, issue, res)
	return res
}

func (s *FixService) commit(ctx context.Context, issue *domain.Issue, desc domain.FixDescriptor) domain.ApplyResult {
	p, err := s.prepare(ctx, issue, desc)
	if err != nil {
		res := failure(err)
		if p != nil {
			res.Placement = p.placement
			res.Enclosing = p.context.Kind
		}
		return res
	}
	res := domain.ApplyResult{Placement: p.placement, Enclosing: p.context.Kind}

	diff := patch.Preview(p.src.String(), p.modified)
	if diff.TotalChanges == 0 {
		return withFailure(res, domain.ValidationError("no_change", "fix does not change the file"))
	}

	if err := s.checker.Check(ctx, p.modified, p.src.Kind()); err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewFixError(domain.KindSyntax, "", err)
		}
		return withFailure(res, err)
	}
	s.logger.Debug("syntax check passed", slog.String("file", issue.FilePath))

	b, err := s.backups.Snapshot(ctx, issue.FilePath)
	if err != nil {
		return withFailure(res, domain.NewFixError(domain.KindBackup, "snapshot failed", err))
	}
	if b.ContentHash != p.hash {
		return withFailure(res, domain.NewFixError(domain.KindIO, issue.FilePath, domain.ErrContentChanged))
	}

	if err := s.files.WriteIfUnchanged(ctx, issue.FilePath, p.hash, []byte(p.modified)); err != nil {
		return withFailure(res, domain.NewFixError(domain.KindIO, "writing fix", err))
	}

	fixedAt := s.now().UTC()
	issue.Metadata = domain.IssueMetadata{Fixed: true, BackupReference: b.Reference, FixedAt: &fixedAt}
	if s.issues != nil && issue.ID != 0 {
		if err := s.issues.MarkFixed(ctx, issue); err != nil {
			s.logger.Warn("recording fix state failed", slog.Int64("issue", issue.ID), slog.Any("error", err))
		}
	}

	res.Success = true
	res.Message = fmt.Sprintf("applied %s fix as %s at line %d", desc.Kind, p.placement, issue.Line)
	res.BackupReference = b.Reference
	res.Preview = &diff
	return res
}

// Preview computes the diff a fix would produce without touching the file.
func (s *FixService) Preview(ctx context.Context, issue *domain.Issue, desc domain.FixDescriptor) (*domain.Diff, error) {
	p, err := s.prepare(ctx, issue, desc)
	if err != nil {
		return nil, err
	}
	diff := patch.Preview(p.src.String(), p.modified)
	return &diff, nil
}

// prepare runs every pure stage: shape check, read, analysis,
// classification, context check and the in-memory edit. The returned plan
// is non-nil once analysis has run, even on error.
func (s *FixService) prepare(ctx context.Context, issue *domain.Issue, desc domain.FixDescriptor) (*plan, error) {
	if err := s.validator.ValidateShape(desc); err != nil {
		return nil, err
	}

	data, err := s.files.Read(ctx, issue.FilePath)
	if err != nil {
		return nil, domain.NewFixError(domain.KindIO, "reading target file", err)
	}
	p := &plan{
		src:  domain.ParseSource(issue.FilePath, string(data)),
		hash: domain.ContentHash(data),
	}
	p.context = s.analyzer.Analyze(p.src.Lines[:p.src.LineCount()], issue.Line)
	p.placement = placement.Classify(desc.Code)
	s.logger.Debug("fix classified",
		slog.String("file", issue.FilePath),
		slog.String("enclosing", string(p.context.Kind)),
		slog.String("placement", string(p.placement)))

	err = s.validator.ValidateContext(validation.Input{
		Source:     p.src,
		Context:    p.context,
		Placement:  p.placement,
		Descriptor: desc,
		Target:     issue.Line,
	})
	if err != nil {
		return p, err
	}

	p.modified, err = s.applier.Apply(p.src, p.context, p.placement, desc, issue.Line)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewFixError(domain.KindPlacement, "", err)
		}
		return p, err
	}
	return p, nil
}

// Restore puts back the content recorded in the issue's backup and clears
// its fixed state. It reports false with an error when nothing was restored.
func (s *FixService) Restore(ctx context.Context, issue *domain.Issue) (bool, error) {
	ref := issue.Metadata.BackupReference
	if ref == "" {
		return false, domain.NewFixError(domain.KindBackup, "", domain.ErrNoBackup)
	}

	unlock := s.locks.lock(issue.FilePath)
	defer unlock()

	b, err := s.backups.Load(ctx, ref)
	if err != nil {
		return false, domain.NewFixError(domain.KindBackup, "loading backup "+ref, err)
	}
	if b.Path != lockKey(issue.FilePath) {
		return false, domain.NewFixError(domain.KindBackup,
			fmt.Sprintf("backup %s belongs to %s, not %s", ref, b.Path, issue.FilePath), nil)
	}
	if err := s.backups.Restore(ctx, b); err != nil {
		return false, domain.NewFixError(domain.KindBackup, "restoring backup "+ref, err)
	}

	issue.Metadata.Fixed = false
	issue.Metadata.FixedAt = nil
	if s.issues != nil && issue.ID != 0 {
		if err := s.issues.ClearFixed(ctx, issue.ID); err != nil && !errors.Is(err, domain.ErrIssueNotFound) {
			s.logger.Warn("clearing fix state failed", slog.Int64("issue", issue.ID), slog.Any("error", err))
		}
	}
	s.logger.Info("fix restored", slog.String("file", issue.FilePath), slog.String("backup", ref))
	return true, nil
}

// Attempts returns the journaled outcomes for an issue, oldest first.
func (s *FixService) Attempts(ctx context.Context, issueID int64) ([]domain.FixAttempt, error) {
	if s.issues == nil {
		return nil, nil
	}
	return s.issues.Attempts(ctx, issueID)
}

func (s *FixService) journal(ctx context.Context, issue *domain.Issue, res domain.ApplyResult) {
	if s.issues == nil || issue.ID == 0 {
		return
	}
	err := s.issues.RecordAttempt(ctx, domain.FixAttempt{
		IssueID:         issue.ID,
		Success:         res.Success,
		ErrorKind:       res.ErrorKind,
		Message:         res.Message,
		BackupReference: res.BackupReference,
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("journaling fix attempt failed", slog.Int64("issue", issue.ID), slog.Any("error", err))
	}
}

func failure(err error) domain.ApplyResult {
	return withFailure(domain.ApplyResult{}, err)
}

func withFailure(res domain.ApplyResult, err error) domain.ApplyResult {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindIO
	}
	res.Success = false
	res.ErrorKind = kind
	res.Message = err.Error()
	return res
}
