package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ErrCounterExhausted is returned when every conditional write attempt lost a race.
var ErrCounterExhausted = errors.New("counter update retries exhausted")

// QuotaCounter adds one to a client's request count with optimistic concurrency.
type QuotaCounter struct {
	store       Store
	keys        Keys
	maxAttempts int
	backoff     Backoff
	logger      *zap.Logger
}

// NewQuotaCounter creates a counter with the default attempt bound and no backoff.
func NewQuotaCounter(store Store, keys Keys, logger *zap.Logger) *QuotaCounter {
	return &QuotaCounter{
		store:       store,
		keys:        keys,
		maxAttempts: DefaultMaxAttempts,
		backoff:     NoBackoff{},
		logger:      logger,
	}
}

// Increment records one request for the client and returns the new count.
// It returns ErrCounterExhausted after maxAttempts consecutive version conflicts.
func (c *QuotaCounter) Increment(ctx context.Context, clientKey string) (uint64, error) {
	counterKey := c.keys.Counter(clientKey)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		raw, version, err := c.store.Get(ctx, counterKey)
		if err != nil {
			return 0, fmt.Errorf("read counter: %w", err)
		}

		count, err := DecodeUint64(raw)
		if err != nil {
			c.logger.Warn("ignoring malformed counter record",
				zap.String("client_id", clientKey), zap.Error(err))
		}

		// Saturates at MaxUint64.
		next := count
		if count < math.MaxUint64 {
			next++
		}

		err = c.store.CompareAndSet(ctx, counterKey, EncodeUint64(next), version)
		if err == nil {
			return next, nil
		}

		if !errors.Is(err, ErrVersionConflict) {
			return 0, fmt.Errorf("write counter: %w", err)
		}

		c.logger.Debug("counter update conflict",
			zap.String("client_id", clientKey), zap.Int("attempt", attempt))

		if attempt < c.maxAttempts {
			if err := c.backoff.Wait(ctx, attempt); err != nil {
				return 0, fmt.Errorf("counter backoff: %w", err)
			}
		}
	}

	return 0, fmt.Errorf("%w after %d attempts", ErrCounterExhausted, c.maxAttempts)
}
