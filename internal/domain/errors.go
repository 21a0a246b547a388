package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies audit failures into a closed set of categories.
// The granularity mirrors what operators need for observability: a
// configuration mistake, a broken repository, an unreadable report,
// a validation failure, an execution fault, or a tool fault.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindRepository    ErrorKind = "repository"
	KindDocument      ErrorKind = "document"
	KindValidation    ErrorKind = "validation"
	KindExecution     ErrorKind = "execution"
	KindTool          ErrorKind = "tool"
)

// AuditError carries a kind plus structured detail fields.
type AuditError struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
}

// NewError constructs an AuditError of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *AuditError {
	return &AuditError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail attaches a key/value detail and returns the error for chaining.
func (e *AuditError) WithDetail(key, value string) *AuditError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the ErrorKind from an error chain.
// Errors that are not AuditErrors are treated as execution faults.
func KindOf(err error) ErrorKind {
	var auditErr *AuditError
	if errors.As(err, &auditErr) {
		return auditErr.Kind
	}
	return KindExecution
}
