package analytics

import "time"

// TopicLimitOutcome carries rate limit decisions that stopped a request.
const TopicLimitOutcome = "ratelimit.outcome"

// LimitEvent represents a request that was blocked or could not be counted.
type LimitEvent struct {
	RequestID  string    `json:"requestId"`
	ClientID   string    `json:"clientId"`
	Outcome    string    `json:"outcome"`
	Count      uint64    `json:"count,omitempty"`
	Limit      uint64    `json:"limit"`
	RetryAfter uint64    `json:"retryAfter,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	OccurredAt time.Time `json:"occurredAt"`

	// WindowDegraded marks a RetryAfter that is a best-effort value.
	WindowDegraded bool `json:"windowDegraded,omitempty"`
}
