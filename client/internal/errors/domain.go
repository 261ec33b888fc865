package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrAuthentication: the auth endpoint rejected the credentials or could
	// not be reached. The session is left unchanged.
	ErrAuthentication = stderrors.New("authentication failed")

	// ErrRegistration: the auth endpoint rejected a registration.
	ErrRegistration = stderrors.New("registration failed")

	// ErrPersistence: the durable store failed a write.
	ErrPersistence = stderrors.New("persistence failed")

	// ErrNotFound: a referenced conversation or ticket does not exist.
	ErrNotFound = stderrors.New("not found")

	// ErrInvalidState: a mutation needs an active session and there is none.
	ErrInvalidState = stderrors.New("invalid state")

	// ErrValidation: caller input failed validation before any side effect.
	ErrValidation = stderrors.New("validation error")
)

// Wrap attaches sentinel to err so both match with errors.Is.
func Wrap(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// NotFound formats an ErrNotFound for the given entity kind and id.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Validation formats an ErrValidation with a reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
