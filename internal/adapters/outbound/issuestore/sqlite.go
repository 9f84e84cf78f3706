// Package issuestore persists issues, their fix state and the journal of
// fix attempts in a local SQLite database.
package issuestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rafaelogic/codesnoutr-sub001/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS issues (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL,
	line_number INTEGER NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	severity TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	fixed INTEGER NOT NULL DEFAULT 0,
	backup_reference TEXT NOT NULL DEFAULT '',
	fixed_at INTEGER
);

CREATE TABLE IF NOT EXISTS fix_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	issue_id INTEGER NOT NULL,
	success INTEGER NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	backup_reference TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fix_attempts_issue ON fix_attempts(issue_id);
`

// Store implements domain.IssueStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single writer keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, issue *domain.Issue) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (file_path, line_number, category, severity, description) VALUES (?, ?, ?, ?, ?)`,
		issue.FilePath, issue.Line, issue.Category, issue.Severity, issue.Description)
	if err != nil {
		return 0, fmt.Errorf("inserting issue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	issue.ID = id
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_path, line_number, category, severity, description, fixed, backup_reference, fixed_at
		FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrIssueNotFound, id)
	}
	return issue, err
}

func (s *Store) List(ctx context.Context) ([]domain.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, line_number, category, severity, description, fixed, backup_reference, fixed_at
		FROM issues ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}

// MarkFixed stores the fix metadata carried by issue.
func (s *Store) MarkFixed(ctx context.Context, issue *domain.Issue) error {
	var fixedAt sql.NullInt64
	if issue.Metadata.FixedAt != nil {
		fixedAt = sql.NullInt64{Int64: issue.Metadata.FixedAt.UnixNano(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE issues SET fixed = 1, backup_reference = ?, fixed_at = ? WHERE id = ?`,
		issue.Metadata.BackupReference, fixedAt, issue.ID)
	if err != nil {
		return fmt.Errorf("marking issue %d fixed: %w", issue.ID, err)
	}
	return expectRow(res, issue.ID)
}

// ClearFixed resets fixed status. The backup reference is kept so the
// restore stays traceable.
func (s *Store) ClearFixed(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE issues SET fixed = 0, fixed_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clearing issue %d: %w", id, err)
	}
	return expectRow(res, id)
}

func (s *Store) RecordAttempt(ctx context.Context, a domain.FixAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fix_attempts (issue_id, success, error_kind, message, backup_reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.IssueID, a.Success, string(a.ErrorKind), a.Message, a.BackupReference, a.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

// Attempts returns the journal for one issue, oldest first.
func (s *Store) Attempts(ctx context.Context, issueID int64) ([]domain.FixAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT issue_id, success, error_kind, message, backup_reference, created_at
		FROM fix_attempts WHERE issue_id = ? ORDER BY id`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.FixAttempt
	for rows.Next() {
		var (
			a       domain.FixAttempt
			kind    string
			created int64
		)
		if err := rows.Scan(&a.IssueID, &a.Success, &kind, &a.Message, &a.BackupReference, &created); err != nil {
			return nil, err
		}
		a.ErrorKind = domain.ErrorKind(kind)
		a.CreatedAt = time.Unix(0, created).UTC()
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(row scanner) (*domain.Issue, error) {
	var (
		issue   domain.Issue
		fixedAt sql.NullInt64
	)
	err := row.Scan(&issue.ID, &issue.FilePath, &issue.Line, &issue.Category, &issue.Severity,
		&issue.Description, &issue.Metadata.Fixed, &issue.Metadata.BackupReference, &fixedAt)
	if err != nil {
		return nil, err
	}
	if fixedAt.Valid {
		t := time.Unix(0, fixedAt.Int64).UTC()
		issue.Metadata.FixedAt = &t
	}
	return &issue, nil
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrIssueNotFound, id)
	}
	return nil
}
