package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/quotagate/internal/ratelimit"
)

// Each record is a hash holding the raw value and a version counter, so a
// conditional write only has to compare one field inside a script.
const (
	fieldValue   = "value"
	fieldVersion = "version"
)

// luaCompareAndSet writes the value when the stored version matches.
// KEYS[1] = record key
// ARGV[1] = value
// ARGV[2] = expected version (0 when the key must not exist)
//
// Returns the new version, or 0 on conflict.
const luaCompareAndSet = `
local current = tonumber(redis.call("HGET", KEYS[1], "version") or "0")
if current ~= tonumber(ARGV[2]) then
    return 0
end

redis.call("HSET", KEYS[1], "value", ARGV[1])
return redis.call("HINCRBY", KEYS[1], "version", 1)
`

// luaSet writes the value unconditionally and bumps the version.
// KEYS[1] = record key
// ARGV[1] = value
const luaSet = `
redis.call("HSET", KEYS[1], "value", ARGV[1])
return redis.call("HINCRBY", KEYS[1], "version", 1)
`

// RedisKV is a Redis implementation of ratelimit.Store.
type RedisKV struct {
	client        *redis.Client
	prefix        string
	compareAndSet *redis.Script
	set           *redis.Script
}

// NewRedisKV creates a new Redis-backed shared state store.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{
		client:        client,
		prefix:        "quotagate:",
		compareAndSet: redis.NewScript(luaCompareAndSet),
		set:           redis.NewScript(luaSet),
	}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, ratelimit.Version, error) {
	fields, err := r.client.HMGet(ctx, r.prefix+key, fieldValue, fieldVersion).Result()
	if err != nil {
		return nil, ratelimit.NoVersion, fmt.Errorf("redis: get %q: %w", key, err)
	}

	raw, ok := fields[0].(string)
	if !ok {
		return nil, ratelimit.NoVersion, nil
	}

	versionRaw, _ := fields[1].(string)

	version, err := strconv.ParseUint(versionRaw, 10, 64)
	if err != nil {
		return nil, ratelimit.NoVersion, fmt.Errorf("redis: bad version for %q: %w", key, err)
	}

	return []byte(raw), ratelimit.Version(version), nil
}

func (r *RedisKV) CompareAndSet(ctx context.Context, key string, value []byte, expected ratelimit.Version) error {
	version, err := r.compareAndSet.Run(ctx, r.client,
		[]string{r.prefix + key},
		value,
		strconv.FormatUint(uint64(expected), 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("redis: compare and set %q: %w", key, err)
	}

	if version == 0 {
		return fmt.Errorf("redis: %q: %w", key, ratelimit.ErrVersionConflict)
	}

	return nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := r.set.Run(ctx, r.client, []string{r.prefix + key}, value).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}

	return nil
}

// Ping checks Redis connectivity.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Compile-time check.
var _ ratelimit.Store = (*RedisKV)(nil)
