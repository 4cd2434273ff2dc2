package services

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a failure so callers never have to parse error
// text to decide how to respond.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation_error"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryDependency ErrorCategory = "dependency_failure"
	CategoryPartial    ErrorCategory = "partial_failure"
	CategoryDegraded   ErrorCategory = "degraded_operation"
)

// Error is the structured error returned by the pipeline services. Stage names
// which part of the pipeline failed (chunking, embedding, search, storage,
// generation) so a 500 can be attributed without reading logs.
type Error struct {
	Category ErrorCategory
	Stage    string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newValidationError(stage, format string, args ...any) *Error {
	return &Error{Category: CategoryValidation, Stage: stage, Message: fmt.Sprintf(format, args...)}
}

func newDependencyError(stage string, err error, format string, args ...any) *Error {
	return &Error{Category: CategoryDependency, Stage: stage, Message: fmt.Sprintf(format, args...), Err: err}
}

// CategoryOf extracts the category from any error in the chain, defaulting to
// dependency_failure for untyped errors.
func CategoryOf(err error) ErrorCategory {
	var se *Error
	if errors.As(err, &se) {
		return se.Category
	}
	return CategoryDependency
}

// StageOf extracts the failing stage, or "" for untyped errors.
func StageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
