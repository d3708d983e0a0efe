package analytics

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/quotagate/internal/messaging"
	"go.uber.org/zap"
)

// NewHandler returns a handler that persists limit events to the store.
func NewHandler(store Store) messaging.Handler[LimitEvent] {
	return func(ctx context.Context, event *LimitEvent) error {
		if err := store.SaveLimitEvent(ctx, event); err != nil {
			return fmt.Errorf("save limit event for client %q: %w", event.ClientID, err)
		}

		return nil
	}
}

// NewConsumer creates a consumer of the limit outcome topic.
func NewConsumer(subscriber message.Subscriber, store Store, logger *zap.Logger) *messaging.Consumer[LimitEvent] {
	return messaging.NewConsumer(subscriber, TopicLimitOutcome, NewHandler(store), logger)
}
