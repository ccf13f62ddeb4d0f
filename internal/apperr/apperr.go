// Package apperr classifies request failures so handlers can map them to
// HTTP status codes without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindValidation marks caller errors: missing or malformed parameters.
	KindValidation Kind = "validation"
	// KindConfiguration marks a required external resource not being wired up.
	KindConfiguration Kind = "configuration"
	// KindStoreQuery marks any failure of the paginated store fetch.
	KindStoreQuery Kind = "store_query"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// StoreQuery wraps an underlying store error. The cause stays reachable via
// errors.Unwrap for logging.
func StoreQuery(err error, format string, args ...any) *Error {
	return &Error{Kind: KindStoreQuery, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
