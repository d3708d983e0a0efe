package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SaveLimitEvent(ctx context.Context, event *LimitEvent) error
}
