package ratelimit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errMissingField = errors.New("missing field")

// Config is the quota policy shared by every request the limiter handles.
type Config struct {
	MaxRequests uint64 `json:"max_requests"`
	TTLSeconds  uint64 `json:"ttl_seconds"`
}

// ParseConfig decodes a JSON policy such as {"max_requests":100,"ttl_seconds":60}.
//
// Empty input yields the zero Config. Malformed input also yields the zero
// Config together with the decoding error. A zero Config blocks every client
// with an identifier, so callers should surface the error loudly.
func ParseConfig(raw []byte) (Config, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Config{}, nil
	}

	var fields struct {
		MaxRequests *uint64 `json:"max_requests"`
		TTLSeconds  *uint64 `json:"ttl_seconds"`
	}

	if err := json.Unmarshal(raw, &fields); err != nil {
		return Config{}, fmt.Errorf("parse rate limit config: %w", err)
	}

	if fields.MaxRequests == nil {
		return Config{}, fmt.Errorf("parse rate limit config: %w max_requests", errMissingField)
	}

	if fields.TTLSeconds == nil {
		return Config{}, fmt.Errorf("parse rate limit config: %w ttl_seconds", errMissingField)
	}

	return Config{
		MaxRequests: *fields.MaxRequests,
		TTLSeconds:  *fields.TTLSeconds,
	}, nil
}
