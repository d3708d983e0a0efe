package ratelimit_test

import (
	"testing"

	"github.com/serroba/quotagate/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("parses a complete policy", func(t *testing.T) {
		cfg, err := ratelimit.ParseConfig([]byte(`{"max_requests": 5, "ttl_seconds": 60}`))

		require.NoError(t, err)
		assert.Equal(t, ratelimit.Config{MaxRequests: 5, TTLSeconds: 60}, cfg)
	})

	t.Run("ignores unknown fields", func(t *testing.T) {
		cfg, err := ratelimit.ParseConfig([]byte(`{"max_requests": 1, "ttl_seconds": 2, "burst": 9}`))

		require.NoError(t, err)
		assert.Equal(t, ratelimit.Config{MaxRequests: 1, TTLSeconds: 2}, cfg)
	})

	t.Run("empty input yields zero config", func(t *testing.T) {
		cfg, err := ratelimit.ParseConfig([]byte("  "))

		require.NoError(t, err)
		assert.Equal(t, ratelimit.Config{}, cfg)
	})

	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `{"max_requests":`},
		{name: "negative value", raw: `{"max_requests": -1, "ttl_seconds": 60}`},
		{name: "wrong type", raw: `{"max_requests": "ten", "ttl_seconds": 60}`},
		{name: "missing ttl", raw: `{"max_requests": 10}`},
		{name: "missing max", raw: `{"ttl_seconds": 10}`},
	}

	for _, tt := range tests {
		t.Run("malformed falls back to zero: "+tt.name, func(t *testing.T) {
			cfg, err := ratelimit.ParseConfig([]byte(tt.raw))

			require.Error(t, err)
			assert.Equal(t, ratelimit.Config{}, cfg)
		})
	}
}
