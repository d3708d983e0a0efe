package store_test

import (
	"context"
	"testing"

	"github.com/serroba/quotagate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV(t *testing.T) {
	testKV(t, store.NewMemoryKV())

	t.Run("returned values are copies", func(t *testing.T) {
		kv := store.NewMemoryKV()
		ctx := context.Background()

		value := []byte("abc")
		require.NoError(t, kv.Set(ctx, "k", value))

		value[0] = 'z'

		got, _, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)

		got[1] = 'z'

		again, _, _ := kv.Get(ctx, "k")
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("ping succeeds", func(t *testing.T) {
		assert.NoError(t, store.NewMemoryKV().Ping(context.Background()))
	})
}
