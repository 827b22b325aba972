package service

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts the time source so decision and commit stamping can be
// controlled in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator produces unique identifiers for requests, allocations,
// authorizations, and reports.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
