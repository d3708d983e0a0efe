package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks whether a request from the given client should proceed.
	Allow(ctx context.Context, clientKey string) Decision
}

// Snapshot is a read-only view of a client's quota state.
type Snapshot struct {
	Count     uint64
	ResetAt   uint64
	ResetIn   uint64
	Remaining uint64
	Limit     uint64
}

// Option configures a FixedWindowLimiter.
type Option func(*FixedWindowLimiter)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindowLimiter) {
		l.now = now
	}
}

// WithMaxAttempts bounds the conditional-write attempts of both the window and the counter.
func WithMaxAttempts(n int) Option {
	return func(l *FixedWindowLimiter) {
		if n > 0 {
			l.window.maxAttempts = n
			l.counter.maxAttempts = n
		}
	}
}

// WithBackoff pauses between conditional-write attempts.
func WithBackoff(b Backoff) Option {
	return func(l *FixedWindowLimiter) {
		if b != nil {
			l.window.backoff = b
			l.counter.backoff = b
		}
	}
}

// WithKeyPrefix namespaces the records written to the store.
func WithKeyPrefix(prefix string) Option {
	return func(l *FixedWindowLimiter) {
		l.keys = Keys{Prefix: prefix}
		l.window.keys = l.keys
		l.counter.keys = l.keys
	}
}

// FixedWindowLimiter enforces Config.MaxRequests per client per Config.TTLSeconds window.
type FixedWindowLimiter struct {
	store   Store
	config  Config
	keys    Keys
	window  *WindowCoordinator
	counter *QuotaCounter
	now     func() time.Time
	logger  *zap.Logger
}

// NewFixedWindowLimiter creates a fixed window limiter over a shared store.
func NewFixedWindowLimiter(store Store, config Config, logger *zap.Logger, opts ...Option) *FixedWindowLimiter {
	keys := Keys{Prefix: DefaultKeyPrefix}

	l := &FixedWindowLimiter{
		store:   store,
		config:  config,
		keys:    keys,
		window:  NewWindowCoordinator(store, keys, logger),
		counter: NewQuotaCounter(store, keys, logger),
		now:     time.Now,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Config returns the policy the limiter enforces.
func (l *FixedWindowLimiter) Config() Config {
	return l.config
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, clientKey string) Decision {
	return l.Decide(ctx, clientKey, l.now())
}

// Decide evaluates the window before incrementing, so the first request of a
// new window never counts against the previous one.
func (l *FixedWindowLimiter) Decide(ctx context.Context, clientKey string, now time.Time) Decision {
	if clientKey == "" {
		return Decision{Outcome: OutcomeBypass}
	}

	window := l.window.Evaluate(ctx, clientKey, epochSeconds(now), l.config.TTLSeconds)

	count, err := l.counter.Increment(ctx, clientKey)
	if err != nil {
		return Decision{
			Outcome:        OutcomeError,
			Limit:          l.config.MaxRequests,
			Reason:         ReasonCounterUpdateFailed,
			Err:            err,
			WindowReset:    window.Reset,
			WindowDegraded: window.Degraded,
		}
	}

	if count > l.config.MaxRequests {
		return Decision{
			Outcome:        OutcomeBlock,
			Limit:          l.config.MaxRequests,
			Count:          count,
			RetryAfter:     window.ResetIn,
			WindowReset:    window.Reset,
			WindowDegraded: window.Degraded,
		}
	}

	return Decision{
		Outcome:        OutcomeAllow,
		Limit:          l.config.MaxRequests,
		Count:          count,
		Remaining:      l.config.MaxRequests - count,
		ResetIn:        window.ResetIn,
		WindowReset:    window.Reset,
		WindowDegraded: window.Degraded,
	}
}

// Inspect reads the client's records without transitioning the window or counting a request.
func (l *FixedWindowLimiter) Inspect(ctx context.Context, clientKey string) (Snapshot, error) {
	count, err := l.readUint64(ctx, l.keys.Counter(clientKey))
	if err != nil {
		return Snapshot{}, err
	}

	resetAt, err := l.readUint64(ctx, l.keys.Window(clientKey))
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Count:     count,
		ResetAt:   resetAt,
		ResetIn:   saturatingSub(l.config.TTLSeconds, saturatingSub(epochSeconds(l.now()), resetAt)),
		Remaining: saturatingSub(l.config.MaxRequests, count),
		Limit:     l.config.MaxRequests,
	}, nil
}

// Reset overwrites the client's records so the next request opens a fresh window.
func (l *FixedWindowLimiter) Reset(ctx context.Context, clientKey string) error {
	if err := l.store.Set(ctx, l.keys.Window(clientKey), EncodeUint64(0)); err != nil {
		return fmt.Errorf("reset window: %w", err)
	}

	if err := l.store.Set(ctx, l.keys.Counter(clientKey), EncodeUint64(0)); err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}

	l.logger.Info("rate limit state reset", zap.String("client_id", clientKey))

	return nil
}

// readUint64 treats a malformed record as 0, as the request path does.
func (l *FixedWindowLimiter) readUint64(ctx context.Context, key string) (uint64, error) {
	raw, _, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}

	v, err := DecodeUint64(raw)
	if err != nil {
		l.logger.Warn("ignoring malformed quota record", zap.String("key", key), zap.Error(err))

		return 0, nil
	}

	return v, nil
}

func epochSeconds(t time.Time) uint64 {
	secs := t.Unix()
	if secs < 0 {
		return 0
	}

	return uint64(secs)
}
