package issuestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelogic/codesnoutr-sub001/internal/adapters/outbound/issuestore"
	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

func openStore(t *testing.T) *issuestore.Store {
	t.Helper()
	s, err := issuestore.Open(filepath.Join(t.TempDir(), ".codesnoutr", "codesnoutr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_CreateGetList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	issue := &domain.Issue{
		FilePath:    "app/Models/User.php",
		Line:        12,
		Category:    "documentation",
		Severity:    domain.SeverityLow,
		Description: "Missing docblock",
	}
	id, err := s.Create(ctx, issue)
	require.NoError(t, err)
	assert.Equal(t, id, issue.ID)

	_, err = s.Create(ctx, &domain.Issue{FilePath: "app/Http/Kernel.php", Line: 3})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, issue.FilePath, got.FilePath)
	assert.Equal(t, 12, got.Line)
	assert.Equal(t, "documentation", got.Category)
	assert.False(t, got.Metadata.Fixed)
	assert.Nil(t, got.Metadata.FixedAt)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id, all[0].ID)
}

func TestStore_GetUnknown(t *testing.T) {
	s := openStore(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrIssueNotFound)
}

func TestStore_MarkAndClearFixed(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	issue := &domain.Issue{FilePath: "a.php", Line: 1}
	_, err := s.Create(ctx, issue)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issue.Metadata = domain.IssueMetadata{Fixed: true, BackupReference: "ref-1", FixedAt: &now}
	require.NoError(t, s.MarkFixed(ctx, issue))

	got, err := s.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.True(t, got.Metadata.Fixed)
	assert.Equal(t, "ref-1", got.Metadata.BackupReference)
	require.NotNil(t, got.Metadata.FixedAt)
	assert.True(t, now.Equal(*got.Metadata.FixedAt))

	require.NoError(t, s.ClearFixed(ctx, issue.ID))
	got, err = s.Get(ctx, issue.ID)
	require.NoError(t, err)
	assert.False(t, got.Metadata.Fixed)
	assert.Nil(t, got.Metadata.FixedAt)
	assert.Equal(t, "ref-1", got.Metadata.BackupReference)

	assert.ErrorIs(t, s.ClearFixed(ctx, 999), domain.ErrIssueNotFound)
}

func TestStore_Attempts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordAttempt(ctx, domain.FixAttempt{
		IssueID: 7, Success: false, ErrorKind: domain.KindValidation, Message: "rejected", CreatedAt: at,
	}))
	require.NoError(t, s.RecordAttempt(ctx, domain.FixAttempt{
		IssueID: 7, Success: true, Message: "applied", BackupReference: "ref", CreatedAt: at.Add(time.Minute),
	}))
	require.NoError(t, s.RecordAttempt(ctx, domain.FixAttempt{IssueID: 8, Success: true, CreatedAt: at}))

	attempts, err := s.Attempts(ctx, 7)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].Success)
	assert.Equal(t, domain.KindValidation, attempts[0].ErrorKind)
	assert.True(t, attempts[1].Success)
	assert.Equal(t, "ref", attempts[1].BackupReference)
	assert.True(t, at.Equal(attempts[0].CreatedAt))
}
