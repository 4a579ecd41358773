package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-gin-gift-admin/internal/cache"
	"go-gin-gift-admin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketSnapshotStore(t *testing.T) {
	ctx := context.Background()
	store := cache.NewRedisTicketSnapshotStore(getTestRdb(t), time.Minute)

	t.Run("Missing", func(t *testing.T) {
		ticket, err := store.Get(ctx, 404)
		assert.NoError(t, err)
		assert.Nil(t, ticket)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		consumedAt := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		in := &model.Ticket{
			ID:               42,
			CodeVerification: "GIFT-042",
			State:            model.TicketStateConsumed,
			ConsumedAt:       &consumedAt,
			Distributor:      &model.User{ID: 1, Name: "Alice"},
		}
		require.NoError(t, store.Put(ctx, in))

		out, err := store.Get(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, model.TicketStateConsumed, out.State)
		assert.Equal(t, "Alice", out.DistributorName())
		assert.True(t, consumedAt.Equal(*out.ConsumedAt))
	})

	t.Run("Expires", func(t *testing.T) {
		rdb := getTestRdb(t)
		short := cache.NewRedisTicketSnapshotStore(rdb, time.Second)
		require.NoError(t, short.Put(ctx, &model.Ticket{ID: 7}))
		ttl, err := rdb.TTL(ctx, "ticket:7:snapshot").Result()
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, time.Second)
	})
}

func TestExportLock(t *testing.T) {
	ctx := context.Background()
	lock := cache.NewRedisExportLock(getTestRdb(t), time.Minute)

	t.Run("Exclusive", func(t *testing.T) {
		token, ok, err := lock.Acquire(ctx, "wallet:all")
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = lock.Acquire(ctx, "wallet:all")
		require.NoError(t, err)
		assert.False(t, ok)

		// 其他 key 不受影響
		other, ok, err := lock.Acquire(ctx, "serdipay:all")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, lock.Release(ctx, "serdipay:all", other))

		require.NoError(t, lock.Release(ctx, "wallet:all", token))
		_, ok, err = lock.Acquire(ctx, "wallet:all")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Release ignores foreign token", func(t *testing.T) {
		_, ok, err := lock.Acquire(ctx, "wallet:filtered")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, lock.Release(ctx, "wallet:filtered", "not-mine"))
		_, ok, err = lock.Acquire(ctx, "wallet:filtered")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Concurrent acquire", func(t *testing.T) {
		var (
			wg       sync.WaitGroup
			acquired int32
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, ok, err := lock.Acquire(ctx, "wallet:race"); err == nil && ok {
					atomic.AddInt32(&acquired, 1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), acquired)
	})
}
