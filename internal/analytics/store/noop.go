package store

import (
	"context"

	"github.com/serroba/quotagate/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLimitEvent(_ context.Context, event *analytics.LimitEvent) error {
	n.logger.Info("limit event received",
		zap.String("requestId", event.RequestID),
		zap.String("clientId", event.ClientID),
		zap.String("outcome", event.Outcome),
		zap.Uint64("count", event.Count),
		zap.Uint64("limit", event.Limit),
		zap.Uint64("retryAfter", event.RetryAfter),
		zap.String("path", event.Path),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}
