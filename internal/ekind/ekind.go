// Package ekind defines the stable error taxonomy shared across the
// reconciliation engine. Every package-boundary error is either an *Error
// from this package or wraps one, so that cmd/edenpkg can map any failure
// to its exit code without inspecting package-private types.
package ekind

import (
	"errors"
	"fmt"
)

// Kind classifies an error for exit-code purposes.
type Kind string

const (
	// InvalidArguments covers CLI/config shape errors. Exit code 2.
	InvalidArguments Kind = "invalid_arguments"
	// Validation covers schema/semantic errors in the config. Exit code 2.
	Validation Kind = "validation"
	// Conflict covers reconciliation situations that would destroy
	// unknown user data, or strict-mode findings. Exit code 3.
	Conflict Kind = "conflict"
	// Runtime covers git/docker/filesystem operational failures. Exit code 1.
	Runtime Kind = "runtime"
	// Io covers underlying filesystem errors. Exit code 1.
	Io Kind = "io"
)

// ExitCode maps a Kind to its process exit code.
func (k Kind) ExitCode() int {
	switch k {
	case InvalidArguments, Validation:
		return 2
	case Conflict:
		return 3
	case Runtime, Io:
		return 1
	default:
		return 1
	}
}

// Error is the engine-wide error type. Field and Code are optional; they
// are populated for Validation errors to give the dotted field path
// (e.g. "skills[2].targets[0].path") and a stable machine-readable code
// (e.g. "INVALID_SKILL_MODE") that callers can match on.
type Error struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Field != "":
		return fmt.Sprintf("%s: %s: %s: %s", e.Kind, e.Code, e.Field, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New constructs a plain error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs a plain error of the given kind with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a Validation error carrying a stable code and dotted
// field path, matching the `CODE: field.path: detail` shape the config
// loader and validator use throughout.
func Validationf(code, field, format string, args ...any) *Error {
	return &Error{
		Kind:    Validation,
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a Kind to an arbitrary error, preserving it for errors.Is/As.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	if existing, ok := err.(*Error); ok {
		return existing
	}
	return &Error{Kind: kind, Message: err.Error(), Wrapped: err}
}

// ExitCodeFor inspects err (which may or may not be an *Error) and returns
// the exit code the CLI should use. Non-*Error values map to Runtime (1).
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.ExitCode()
	}
	return 1
}
