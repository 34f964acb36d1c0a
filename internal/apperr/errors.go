// Package apperr defines the closed error taxonomy shared by the review and
// grade pipelines. Orchestrators translate every unrecoverable stage failure
// into one of these kinds before publishing a *_failed event.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, user-visible error classification. Stack traces and
// internal detail stay in logs; only Kind and the message cross the API.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindClone        Kind = "clone"
	KindAnalyze      Kind = "analyze"
	KindModel        Kind = "model_error"
	KindCancelled    Kind = "cancelled"
	KindInternal     Kind = "internal"
)

// IsValid reports whether k is one of the known error kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindInvalidInput, KindClone, KindAnalyze, KindModel, KindCancelled, KindInternal:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Error is the typed error carried on a failed job. It wraps an optional
// cause so %w-chains keep working for callers that care, while Kind/Message
// stay stable for API consumers.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error around an underlying cause, preserving it for
// errors.Is/errors.As while keeping Message human-readable.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, defaulting to KindInternal otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the stable, user-visible message for err: Message
// alone for an *Error (never the wrapped cause or the "kind: " prefix),
// falling back to err.Error() for anything else. Job.Error fields store
// this rather than the full Go error chain, matching §7's "stable kind
// string and a human message" split.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Cancelled is the stable error used for cancelled jobs (§7: error "cancelled").
func Cancelled() *Error {
	return New(KindCancelled, "cancelled")
}
