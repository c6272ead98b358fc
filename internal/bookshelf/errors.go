package bookshelf

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation so the transport can choose a status.
type Kind uint8

const (
	// KindInternal is an unexpected fault, such as a corrupt store or a
	// recovered panic.
	KindInternal Kind = iota
	// KindValidation is a missing or contradictory input field.
	KindValidation
	// KindNotFound is an unknown book id.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	}
	return "internal"
}

// Error is returned by every Service operation that fails.
type Error struct {
	Kind    Kind
	Message string // Client-facing description
	Err     error  // Underlying fault, if any
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Errors that are not an *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(prefix, message string) *Error {
	return &Error{Kind: KindValidation, Message: prefix + ". " + message}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// internalError wraps an unexpected fault. The message is the fault's own
// description.
func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

func recovered(v any) *Error {
	if err, ok := v.(error); ok {
		return internalError(err)
	}
	return internalError(fmt.Errorf("%v", v))
}
