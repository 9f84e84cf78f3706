// Package workspace reads and writes the project files fixes are applied to.
package workspace

import (
	"context"
	"fmt"
	"os"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

// Files implements domain.FileStore on the local filesystem.
type Files struct{}

// New creates a Files store.
func New() *Files {
	return &Files{}
}

func (f *Files) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// WriteIfUnchanged replaces path with data if its content still hashes to
// expectedHash, keeping the file's permissions.
func (f *Files) WriteIfUnchanged(ctx context.Context, path, expectedHash string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	current, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if got := domain.ContentHash(current); got != expectedHash {
		return fmt.Errorf("%s: %w", path, domain.ErrContentChanged)
	}
	return WriteFileAtomic(path, data, info.Mode().Perm())
}
