package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/serroba/quotagate/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKV checks the conditional-write contract every backend must honour.
func testKV(t *testing.T, kv ratelimit.Store) {
	t.Helper()

	ctx := context.Background()

	t.Run("missing key has no value and no version", func(t *testing.T) {
		value, version, err := kv.Get(ctx, uuid.NewString())

		require.NoError(t, err)
		assert.Nil(t, value)
		assert.Equal(t, ratelimit.NoVersion, version)
	})

	t.Run("create succeeds only when key is absent", func(t *testing.T) {
		key := uuid.NewString()

		require.NoError(t, kv.CompareAndSet(ctx, key, []byte("first"), ratelimit.NoVersion))

		err := kv.CompareAndSet(ctx, key, []byte("second"), ratelimit.NoVersion)
		require.ErrorIs(t, err, ratelimit.ErrVersionConflict)

		value, version, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), value)
		assert.NotEqual(t, ratelimit.NoVersion, version)
	})

	t.Run("update with current version succeeds and changes the version", func(t *testing.T) {
		key := uuid.NewString()
		require.NoError(t, kv.CompareAndSet(ctx, key, ratelimit.EncodeUint64(1), ratelimit.NoVersion))

		_, v1, err := kv.Get(ctx, key)
		require.NoError(t, err)

		require.NoError(t, kv.CompareAndSet(ctx, key, ratelimit.EncodeUint64(2), v1))

		value, v2, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, ratelimit.EncodeUint64(2), value)
		assert.NotEqual(t, v1, v2)
	})

	t.Run("update with stale version fails without side effect", func(t *testing.T) {
		key := uuid.NewString()
		require.NoError(t, kv.CompareAndSet(ctx, key, []byte("a"), ratelimit.NoVersion))

		_, stale, err := kv.Get(ctx, key)
		require.NoError(t, err)

		require.NoError(t, kv.Set(ctx, key, []byte("b")))

		err = kv.CompareAndSet(ctx, key, []byte("c"), stale)
		require.ErrorIs(t, err, ratelimit.ErrVersionConflict)

		value, _, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("b"), value)
	})

	t.Run("set overwrites regardless of version", func(t *testing.T) {
		key := uuid.NewString()

		require.NoError(t, kv.Set(ctx, key, []byte("x")))
		require.NoError(t, kv.Set(ctx, key, []byte("y")))

		value, version, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("y"), value)
		assert.NotEqual(t, ratelimit.NoVersion, version)
	})

	t.Run("concurrent increments lose no updates", func(t *testing.T) {
		key := uuid.NewString()
		workers := 8
		perWorker := 10

		var wg sync.WaitGroup

		for range workers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				for range perWorker {
					for {
						raw, version, err := kv.Get(ctx, key)
						if !assert.NoError(t, err) {
							return
						}

						n, _ := ratelimit.DecodeUint64(raw)
						if err := kv.CompareAndSet(ctx, key, ratelimit.EncodeUint64(n+1), version); err == nil {
							break
						}
					}
				}
			}()
		}

		wg.Wait()

		raw, _, err := kv.Get(ctx, key)
		require.NoError(t, err)

		n, err := ratelimit.DecodeUint64(raw)
		require.NoError(t, err)
		assert.Equal(t, uint64(workers*perWorker), n)
	})
}
