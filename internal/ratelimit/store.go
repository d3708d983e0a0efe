package ratelimit

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by a conditional write when the stored
// version no longer matches the expected one.
var ErrVersionConflict = errors.New("version conflict")

// Version identifies a revision of a stored value. NoVersion means the key
// does not exist, so a conditional write expecting it only creates.
type Version uint64

const NoVersion Version = 0

// Store defines the shared key-value capability the limiter coordinates through.
// Implementations must be safe for concurrent use by many request contexts.
type Store interface {
	// Get returns the value and version stored under key.
	// A missing key yields a nil value and NoVersion without error.
	Get(ctx context.Context, key string) ([]byte, Version, error)

	// CompareAndSet writes value only if the current version equals expected.
	// It returns ErrVersionConflict (possibly wrapped) otherwise.
	CompareAndSet(ctx context.Context, key string, value []byte, expected Version) error

	// Set overwrites value regardless of the current version.
	Set(ctx context.Context, key string, value []byte) error
}
