package ratelimit

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds every read-compute-conditional-write loop.
const DefaultMaxAttempts = 5

// WindowState is the outcome of evaluating a client's accounting window.
type WindowState struct {
	// ResetIn is the number of seconds until the current window expires.
	ResetIn uint64
	// Reset reports whether this evaluation opened a new window.
	Reset bool
	// Degraded reports that the window could not be settled and ResetIn is a best-effort value.
	Degraded bool
}

// WindowCoordinator detects expired windows and moves clients into a new one.
type WindowCoordinator struct {
	store       Store
	keys        Keys
	maxAttempts int
	backoff     Backoff
	logger      *zap.Logger
}

// NewWindowCoordinator creates a coordinator with the default attempt bound and no backoff.
func NewWindowCoordinator(store Store, keys Keys, logger *zap.Logger) *WindowCoordinator {
	return &WindowCoordinator{
		store:       store,
		keys:        keys,
		maxAttempts: DefaultMaxAttempts,
		backoff:     NoBackoff{},
		logger:      logger,
	}
}

// Evaluate returns the time left in the client's window, opening a new window
// when more than ttl seconds have elapsed since the last reset.
//
// It never fails: store errors and exhausted retries fall back to the
// reset_in implied by the latest successful read.
func (w *WindowCoordinator) Evaluate(ctx context.Context, clientKey string, now, ttl uint64) WindowState {
	windowKey := w.keys.Window(clientKey)
	resetIn := ttl

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		raw, version, err := w.store.Get(ctx, windowKey)
		if err != nil {
			w.logger.Warn("window read failed, continuing with best-effort reset",
				zap.String("client_id", clientKey), zap.Error(err))

			return WindowState{ResetIn: resetIn, Degraded: true}
		}

		resetAt, err := DecodeUint64(raw)
		if err != nil {
			w.logger.Warn("ignoring malformed window record",
				zap.String("client_id", clientKey), zap.Error(err))
		}

		elapsed := saturatingSub(now, resetAt)
		if elapsed <= ttl {
			return WindowState{ResetIn: ttl - elapsed}
		}

		resetIn = 0

		err = w.store.CompareAndSet(ctx, windowKey, EncodeUint64(now), version)
		if err == nil {
			w.resetCounter(ctx, clientKey)

			return WindowState{ResetIn: ttl, Reset: true}
		}

		if !errors.Is(err, ErrVersionConflict) {
			w.logger.Warn("window transition failed, continuing with best-effort reset",
				zap.String("client_id", clientKey), zap.Error(err))

			return WindowState{ResetIn: resetIn, Degraded: true}
		}

		if attempt < w.maxAttempts {
			if err := w.backoff.Wait(ctx, attempt); err != nil {
				return WindowState{ResetIn: resetIn, Degraded: true}
			}
		}
	}

	w.logger.Warn("window transition retries exhausted",
		zap.String("client_id", clientKey), zap.Int("attempts", w.maxAttempts))

	return WindowState{ResetIn: resetIn, Degraded: true}
}

// resetCounter zeroes the counter after a won transition. This write is not
// atomic with the window write, so an increment landing in between may be lost.
func (w *WindowCoordinator) resetCounter(ctx context.Context, clientKey string) {
	if err := w.store.Set(ctx, w.keys.Counter(clientKey), EncodeUint64(0)); err != nil {
		w.logger.Error("counter reset failed after window transition",
			zap.String("client_id", clientKey), zap.Error(err))

		return
	}

	w.logger.Info("rate limit window reset", zap.String("client_id", clientKey))
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}

	return a - b
}
