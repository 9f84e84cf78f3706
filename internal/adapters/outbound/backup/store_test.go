package backup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/backup"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

type fakeGit struct {
	hash string
	err  error
}

func (f fakeGit) CommitHash(string) (string, error) { return f.hash, f.err }

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "User.php")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStore_SnapshotAndRestore(t *testing.T) {
	path := writeFile(t, "<?php\nclass User {}\n")
	store := backup.New(t.TempDir(), fakeGit{hash: "abc123"})
	ctx := context.Background()

	b, err := store.Snapshot(ctx, path)
	require.NoError(t, err)
	assert.NotEmpty(t, b.Reference)
	assert.Equal(t, "abc123", b.CommitHash)
	assert.Equal(t, domain.ContentHash([]byte("<?php\nclass User {}\n")), b.ContentHash)

	require.NoError(t, os.WriteFile(path, []byte("<?php\nbroken"), 0o644))

	loaded, err := store.Load(ctx, b.Reference)
	require.NoError(t, err)
	require.NoError(t, store.Restore(ctx, loaded))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<?php\nclass User {}\n", string(got))
}

func TestStore_SnapshotOutsideRepository(t *testing.T) {
	path := writeFile(t, "<?php\n")
	store := backup.New(t.TempDir(), fakeGit{err: errors.New("not a repo")})

	b, err := store.Snapshot(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, b.CommitHash)
}

func TestStore_SnapshotMissingFile(t *testing.T) {
	store := backup.New(t.TempDir(), nil)
	_, err := store.Snapshot(context.Background(), filepath.Join(t.TempDir(), "missing.php"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_LoadUnknownReference(t *testing.T) {
	store := backup.New(t.TempDir(), nil)
	ctx := context.Background()

	_, err := store.Load(ctx, "2f1c1f1e-9c1a-4d8e-a2f4-3f8f9d1c0b7a")
	assert.ErrorIs(t, err, domain.ErrBackupNotFound)

	_, err = store.Load(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrBackupNotFound)
}

func TestStore_RestoreRejectsCorruptBackup(t *testing.T) {
	path := writeFile(t, "<?php\n")
	store := backup.New(t.TempDir(), nil)

	b, err := store.Snapshot(context.Background(), path)
	require.NoError(t, err)
	b.OriginalContent = []byte("tampered")

	assert.Error(t, store.Restore(context.Background(), b))
}

func TestStore_List(t *testing.T) {
	dir := t.TempDir()
	store := backup.New(dir, nil)
	ctx := context.Background()

	empty, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := store.Snapshot(ctx, writeFile(t, "one"))
	require.NoError(t, err)
	second, err := store.Snapshot(ctx, writeFile(t, "two"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	refs := []string{all[0].Reference, all[1].Reference}
	assert.ElementsMatch(t, []string{first.Reference, second.Reference}, refs)
}
