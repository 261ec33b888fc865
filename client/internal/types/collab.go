package types

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies creation and update timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies globally unique identifiers.
type IDGenerator interface {
	NewID() string
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces random (v4) UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
