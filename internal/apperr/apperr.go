// Package apperr defines the error taxonomy shared by the ledger, the store
// and the bot surface.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the caller should react to it.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindCapacityExceeded
	KindValidation
	KindConfiguration
	KindRemote
	KindConflict
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindCapacityExceeded:
		return "capacity exceeded"
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindRemote:
		return "remote"
	case KindConflict:
		return "conflict"
	case KindDuplicate:
		return "duplicate"
	}
	return "unknown"
}

// Error is a classified error. Op names the failing operation, Msg is safe to
// show to the user.
type Error struct {
	Kind Kind
	Code int
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == 0 || t.Code == e.Code)
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrRemote           = &Error{Kind: KindRemote}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrDuplicate        = &Error{Kind: KindDuplicate}
)

func newf(kind Kind, code int, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(code int, op, format string, args ...interface{}) *Error {
	return newf(KindNotFound, code, op, format, args...)
}

func CapacityExceeded(op, format string, args ...interface{}) *Error {
	return newf(KindCapacityExceeded, ErrRoomFull, op, format, args...)
}

func Validation(op, format string, args ...interface{}) *Error {
	return newf(KindValidation, ErrInvalidInput, op, format, args...)
}

func Configuration(op, format string, args ...interface{}) *Error {
	return newf(KindConfiguration, ErrMissingAssociation, op, format, args...)
}

func Conflict(op, format string, args ...interface{}) *Error {
	return newf(KindConflict, ErrConcurrentUpdate, op, format, args...)
}

func Duplicate(code int, op, format string, args ...interface{}) *Error {
	return newf(KindDuplicate, code, op, format, args...)
}

// Remote wraps a store or transport failure. Already classified errors pass
// through unchanged.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindRemote, Code: ErrStore, Op: op, Err: err}
}

// Delivery wraps a failed notification send.
func Delivery(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindRemote, Code: ErrNotify, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// CodeOf returns the numeric code of the first *Error in err's chain.
func CodeOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrUnknown
}
