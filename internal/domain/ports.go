package domain

import "context"

// StructureAnalyzer classifies the structure enclosing a 1-based target line.
type StructureAnalyzer interface {
	Analyze(lines []string, target int) StructuralContext
}

// PatchApplier transforms a source file according to a fix descriptor and
// returns the new file content.
type PatchApplier interface {
	Apply(src *SourceFile, sc StructuralContext, placement PlacementKind, desc FixDescriptor, target int) (string, error)
}

// SyntaxChecker reports whether content is syntactically valid for its file
// kind. A nil error means valid.
type SyntaxChecker interface {
	Check(ctx context.Context, content, fileKind string) error
}

// FileStore reads target files and writes them back atomically.
type FileStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
	// WriteIfUnchanged replaces path with data only if its current content
	// still hashes to expectedHash.
	WriteIfUnchanged(ctx context.Context, path, expectedHash string, data []byte) error
}

// BackupStore snapshots file content before mutation and restores it.
type BackupStore interface {
	Snapshot(ctx context.Context, path string) (*Backup, error)
	Load(ctx context.Context, reference string) (*Backup, error)
	Restore(ctx context.Context, backup *Backup) error
}

// IssueStore persists issues, their fix state and the attempt journal.
type IssueStore interface {
	Create(ctx context.Context, issue *Issue) (int64, error)
	Get(ctx context.Context, id int64) (*Issue, error)
	List(ctx context.Context) ([]Issue, error)
	MarkFixed(ctx context.Context, issue *Issue) error
	ClearFixed(ctx context.Context, id int64) error
	RecordAttempt(ctx context.Context, attempt FixAttempt) error
	Attempts(ctx context.Context, issueID int64) ([]FixAttempt, error)
}

// ConfigLoader loads project configuration.
type ConfigLoader interface {
	Load(projectPath string) (Config, error)
}

// GitInfo reads repository metadata for backup provenance.
type GitInfo interface {
	CommitHash(projectPath string) (string, error)
}
