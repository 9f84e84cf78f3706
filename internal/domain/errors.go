package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the taxonomy bucket a fix failure falls into.
type ErrorKind string

const (
	KindNormalization ErrorKind = "normalization"
	KindValidation    ErrorKind = "validation"
	KindPlacement     ErrorKind = "placement"
	KindSyntax        ErrorKind = "syntax"
	KindIO            ErrorKind = "io"
	KindBackup        ErrorKind = "backup"
)

var (
	// ErrNoBackup is returned when an issue carries no backup reference.
	ErrNoBackup = errors.New("issue has no backup reference")
	// ErrBackupNotFound is returned when a backup reference cannot be resolved.
	ErrBackupNotFound = errors.New("backup not found")
	// ErrContentChanged is returned when the target file changed between
	// read and write.
	ErrContentChanged = errors.New("file content changed since it was read")
	// ErrIssueNotFound is returned by issue stores for unknown ids.
	ErrIssueNotFound = errors.New("issue not found")
)

// FixError is a failure of one fix attempt. Rule names the validation rule
// or stage that produced it, when there is one.
type FixError struct {
	Kind ErrorKind
	Rule string
	Msg  string
	Err  error
}

func (e *FixError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *FixError) Unwrap() error { return e.Err }

// NewFixError builds a FixError of the given kind.
func NewFixError(kind ErrorKind, msg string, err error) *FixError {
	return &FixError{Kind: kind, Msg: msg, Err: err}
}

// ValidationError builds a rejection produced by the named rule.
func ValidationError(rule, msg string) *FixError {
	return &FixError{Kind: KindValidation, Rule: rule, Msg: msg}
}

// PlacementError builds a failure to locate a structural anchor.
func PlacementError(msg string) *FixError {
	return &FixError{Kind: KindPlacement, Msg: msg}
}

// KindOf returns the taxonomy kind of err, or "" if err is not a FixError.
func KindOf(err error) ErrorKind {
	var fe *FixError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// RuleOf returns the rule name of err, or "" if there is none.
func RuleOf(err error) string {
	var fe *FixError
	if errors.As(err, &fe) {
		return fe.Rule
	}
	return ""
}
