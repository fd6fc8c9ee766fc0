package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single error type crossing the service/handler boundary.
// Status is the HTTP status the handler should respond with, Code a stable
// machine-readable identifier.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeReferentialGuard = "referential_guard"
	CodePartialWrite     = "partial_write"
	CodeUnmatchedRule    = "unmatched_rule"
)

// Validation marks missing or malformed caller input. Never retried.
func Validation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

// NotFound marks an unknown entity, definition or rule.
func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

// ReferentialGuard marks a delete blocked by live references. The target is
// left untouched.
func ReferentialGuard(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeReferentialGuard, fmt.Errorf(format, args...))
}

// PartialWrite marks an attribute fan-out failure after the owning entity row
// was written; the caller has already run the compensating delete by the time
// this surfaces.
func PartialWrite(cause error) *Error {
	return New(http.StatusInternalServerError, CodePartialWrite, fmt.Errorf("attribute fan-out failed after entity write: %w", cause))
}

// UnmatchedRule marks a transaction smart code with no posting rule. Fatal for
// that transaction, never silently skipped.
func UnmatchedRule(smartCode string) *Error {
	return New(http.StatusUnprocessableEntity, CodeUnmatchedRule, fmt.Errorf("no posting rule for smart code %q", smartCode))
}

// From extracts an *Error from err's chain, or wraps err as a generic 500.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, "internal_error", err)
}

func HasCode(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
