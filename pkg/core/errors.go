package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the purpose of deciding how to report it.
type Kind string

// Error kinds.
const (
	KindUnknown            Kind = ""
	KindInput              Kind = "input"
	KindModel              Kind = "model"
	KindSafety             Kind = "safety"
	KindExecution          Kind = "execution"
	KindIngest             Kind = "ingest"
	KindBackendUnavailable Kind = "backend_unavailable"
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and operation name.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error without an operation name.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
