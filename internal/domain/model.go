package domain

import "time"

// Issue is a diagnostic produced by a detector, identifying the file and
// line a fix is aimed at.
type Issue struct {
	ID          int64         `json:"id,omitempty"`
	FilePath    string        `json:"file_path"`
	Line        int           `json:"line_number"`
	Category    string        `json:"category,omitempty"`
	Severity    string        `json:"severity,omitempty"`
	Description string        `json:"description,omitempty"`
	Metadata    IssueMetadata `json:"metadata"`
}

// IssueMetadata carries the fix state the engine records on an issue.
type IssueMetadata struct {
	Fixed           bool       `json:"fixed"`
	BackupReference string     `json:"backup_reference,omitempty"`
	FixedAt         *time.Time `json:"fixed_at,omitempty"`
}

const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// ValidSeverities enumerates the recognized issue severities.
var ValidSeverities = []string{
	SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo,
}

// FixKind is the transformation a fix requests.
type FixKind string

const (
	FixReplace FixKind = "replace"
	FixInsert  FixKind = "insert"
	FixDelete  FixKind = "delete"
)

// Valid reports whether k is one of the supported kinds.
func (k FixKind) Valid() bool {
	switch k {
	case FixReplace, FixInsert, FixDelete:
		return true
	}
	return false
}

// FixDescriptor is the structured fix recovered from a model response.
type FixDescriptor struct {
	Code           string  `json:"code"`
	Explanation    string  `json:"explanation"`
	Confidence     float64 `json:"confidence"`
	SafeToAutomate bool    `json:"safe_to_automate"`
	AffectedLines  []int   `json:"affected_lines"`
	Kind           FixKind `json:"kind"`
}

// EnclosingKind classifies the structure around a target line.
type EnclosingKind string

const (
	EnclosingFileLevel    EnclosingKind = "file_level"
	EnclosingClassBody    EnclosingKind = "class_body"
	EnclosingMethodBody   EnclosingKind = "method_body"
	EnclosingArrayLiteral EnclosingKind = "array_literal"
	EnclosingUnknown      EnclosingKind = "unknown"
)

// StructuralContext describes where a target line sits in its file.
// Line numbers are 1-based; zero means not found.
type StructuralContext struct {
	Indentation       string        `json:"indentation"`
	Kind              EnclosingKind `json:"enclosing_kind"`
	EnclosingName     string        `json:"enclosing_name,omitempty"`
	IsDeclarationLine bool          `json:"is_declaration_line"`

	ClassLine   int    `json:"class_line,omitempty"`
	ClassIndent string `json:"class_indent,omitempty"`
	MethodName  string `json:"method_name,omitempty"`
	MethodLine  int    `json:"method_line,omitempty"`
}

// InClass reports whether the context has an enclosing type declaration.
func (c StructuralContext) InClass() bool {
	return c.ClassLine > 0
}

// PlacementKind categorizes a fix payload by where it may legally go.
type PlacementKind string

const (
	PlacementClassDocblock  PlacementKind = "class_docblock"
	PlacementMemberDocblock PlacementKind = "member_docblock"
	PlacementClassMember    PlacementKind = "class_member"
	PlacementFullMethodBody PlacementKind = "full_method_body"
	PlacementGeneric        PlacementKind = "generic"
)

// IsClassLevel reports whether the payload only makes sense directly inside
// a class body.
func (p PlacementKind) IsClassLevel() bool {
	return p == PlacementClassMember || p == PlacementFullMethodBody
}

// LineChange is one changed line in a preview. Line is the 1-based line of
// the original file the change applies at.
type LineChange struct {
	Line     int    `json:"line"`
	Original string `json:"original"`
	Modified string `json:"modified"`
}

// Diff summarizes the changes a fix makes.
type Diff struct {
	TotalChanges int          `json:"total_changes"`
	Changes      []LineChange `json:"per_line_changes"`
}

// ApplyResult is the outcome of one fix attempt.
type ApplyResult struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	BackupReference string        `json:"backup_reference,omitempty"`
	Preview         *Diff         `json:"preview,omitempty"`
	ErrorKind       ErrorKind     `json:"error_kind,omitempty"`
	Placement       PlacementKind `json:"placement,omitempty"`
	Enclosing       EnclosingKind `json:"enclosing_kind,omitempty"`
}

// Backup is a snapshot of a file taken before it is mutated.
type Backup struct {
	Reference       string    `json:"reference"`
	Path            string    `json:"path"`
	OriginalContent []byte    `json:"original_content"`
	ContentHash     string    `json:"content_hash"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// FixAttempt is one journaled ApplyFix outcome.
type FixAttempt struct {
	IssueID         int64     `json:"issue_id"`
	Success         bool      `json:"success"`
	ErrorKind       ErrorKind `json:"error_kind,omitempty"`
	Message         string    `json:"message"`
	BackupReference string    `json:"backup_reference,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
