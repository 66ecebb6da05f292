package ml

import (
	"errors"
	"fmt"
)

// ErrorKind is a coarse-grained categorization for encoding and inference errors.
type ErrorKind string

const (
	KindUnknownCategory ErrorKind = "unknown_category"
	KindOutOfRange      ErrorKind = "out_of_range"
	KindModelInvocation ErrorKind = "model_invocation"
	KindMissingField    ErrorKind = "missing_field"
	KindInvalidArtifact ErrorKind = "invalid_artifact"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op    string
	Kind  ErrorKind
	Field string // Optional: feature the error relates to
	Err   error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Field != "" {
		base += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err is not an *OpError.
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

func opErr(op string, kind ErrorKind, field string, err error) error {
	return &OpError{Op: op, Kind: kind, Field: field, Err: err}
}
