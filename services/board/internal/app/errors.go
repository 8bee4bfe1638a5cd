package app

import (
	"errors"
	"fmt"
)

// Kind separates client-caused failures from store failures.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

var (
	// ErrMessageRequired indicates a post without a message field.
	ErrMessageRequired = errors.New("missing field 'message'")
	// ErrBodyTooLarge indicates a post body over the configured limit.
	ErrBodyTooLarge = errors.New("request body too large")
	// ErrInvalidForm indicates a request body that could not be read.
	ErrInvalidForm = errors.New("invalid request body")
	// ErrInvalidFilter indicates an unparsable before/after value.
	ErrInvalidFilter = errors.New("invalid time range filter")
	// ErrService is the public text of every persistence failure.
	ErrService = errors.New("service error")
)

// Error is the tagged error returned by the board flows.
// Message is safe to show to clients; Err carries the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(msg string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: cause}
}

func persistenceError(cause error) *Error {
	return &Error{Kind: KindPersistence, Message: ErrService.Error(), Err: fmt.Errorf("%w: %w", ErrService, cause)}
}

// KindOf reports the Kind of err, defaulting to KindPersistence for
// untagged errors so they are never shown as client mistakes.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindPersistence
}

// PublicMessage returns the client-facing text for err.
func PublicMessage(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Message
	}
	return ErrService.Error()
}
