// Package backup keeps pre-fix snapshots of files as JSON documents, one per
// snapshot, named by a random reference.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/workspace"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

// Store is a file-based implementation of domain.BackupStore.
type Store struct {
	dir string
	git domain.GitInfo
	now func() time.Time
}

// New creates a store under dir. git may be nil; when set, snapshots record
// the HEAD commit of the repository holding the file.
func New(dir string, git domain.GitInfo) *Store {
	return &Store{dir: dir, git: git, now: time.Now}
}

// Snapshot reads path and persists its content under a new reference.
func (s *Store) Snapshot(ctx context.Context, path string) (*domain.Backup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	b := &domain.Backup{
		Reference:       uuid.New().String(),
		Path:            abs,
		OriginalContent: data,
		ContentHash:     domain.ContentHash(data),
		CreatedAt:       s.now().UTC(),
	}
	if s.git != nil {
		// not being in a repository is fine
		if hash, err := s.git.CommitHash(abs); err == nil {
			b.CommitHash = hash
		}
	}

	if err := workspace.WriteJSONAtomic(s.file(b.Reference), b); err != nil {
		return nil, fmt.Errorf("writing backup: %w", err)
	}
	return b, nil
}

// Load returns the backup stored under reference.
func (s *Store) Load(ctx context.Context, reference string) (*domain.Backup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(reference); err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrBackupNotFound, reference)
	}
	data, err := os.ReadFile(s.file(reference))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBackupNotFound, reference)
		}
		return nil, err
	}

	var b domain.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding backup %s: %w", reference, err)
	}
	return &b, nil
}

// Restore writes the snapshot content back to its original path.
func (s *Store) Restore(ctx context.Context, b *domain.Backup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if domain.ContentHash(b.OriginalContent) != b.ContentHash {
		return fmt.Errorf("backup %s is corrupt: content hash mismatch", b.Reference)
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(b.Path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := workspace.WriteFileAtomic(b.Path, b.OriginalContent, perm); err != nil {
		return fmt.Errorf("restoring %s: %w", b.Path, err)
	}
	return nil
}

// List returns every stored backup, oldest first. A missing store directory
// is an empty list.
func (s *Store) List(ctx context.Context) ([]domain.Backup, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var backups []domain.Backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := s.Load(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			if errors.Is(err, domain.ErrBackupNotFound) {
				continue
			}
			return nil, err
		}
		backups = append(backups, *b)
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.Before(backups[j].CreatedAt)
	})
	return backups, nil
}

func (s *Store) file(reference string) string {
	return filepath.Join(s.dir, reference+".json")
}
