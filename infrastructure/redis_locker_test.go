package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedisLocker(t *testing.T) *RedisLocker {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := OpenRedis(ctx, endpoint, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocker(client, "tooly:lock:", 5*time.Second)
}

func TestRedisLocker_SerializesSameKey(t *testing.T) {
	t.Parallel()
	locker := setupRedisLocker(t)
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "economy:g1:u1")
			require.NoError(t, err)
			defer unlock()

			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
}

func TestRedisLocker_ReleaseOnlyOwnToken(t *testing.T) {
	t.Parallel()
	locker := setupRedisLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	unlock2, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	// A stale release from the first holder must not free the new holder's lock
	unlock()

	exists, err := locker.client.Exists(ctx, "tooly:lock:k").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
	unlock2()
}

func TestOpenRedis_EmptyAddr(t *testing.T) {
	_, err := OpenRedis(context.Background(), "", "", 0)
	assert.Error(t, err)
}

func TestRedisLocker_RenewsWhileHeld(t *testing.T) {
	t.Parallel()
	locker := setupRedisLocker(t)
	locker.ttl = 300 * time.Millisecond
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "slow")
	require.NoError(t, err)

	time.Sleep(time.Second)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	exists, err := locker.client.Exists(ctx, "tooly:lock:slow").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
