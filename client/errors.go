package client

import (
	"errors"

	ierrors "github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/shardqueue"
)

// Re-export shared errors so callers compare against a single symbol.
var (
	ErrAuthentication = ierrors.ErrAuthentication
	ErrRegistration   = ierrors.ErrRegistration
	ErrPersistence    = ierrors.ErrPersistence
	ErrNotFound       = ierrors.ErrNotFound
	ErrInvalidState   = ierrors.ErrInvalidState
	ErrValidation     = ierrors.ErrValidation

	// ErrBackPressure is returned when the internal write queue is full.
	ErrBackPressure = shardqueue.ErrQueueFull
	// ErrExecutorClosed is returned for writes attempted after Close.
	ErrExecutorClosed = shardqueue.ErrExecutorClosed
)

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }
func IsRegistration(err error) bool   { return errors.Is(err, ErrRegistration) }
func IsPersistence(err error) bool    { return errors.Is(err, ErrPersistence) }
func IsNotFound(err error) bool       { return errors.Is(err, ErrNotFound) }
func IsInvalidState(err error) bool   { return errors.Is(err, ErrInvalidState) }
func IsValidation(err error) bool     { return errors.Is(err, ErrValidation) }
