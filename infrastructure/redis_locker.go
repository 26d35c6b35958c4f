package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tooly/domain/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var _ interfaces.KeyLocker = (*RedisLocker)(nil)

// releaseScript deletes the lock only if it still carries our token so an
// expired lock taken over by another process is left alone
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out only while the lock still carries our token
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker serializes work per key across processes sharing one Redis
type RedisLocker struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

// OpenRedis creates a Redis client and pings it to validate the connection
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRedisLocker creates a distributed locker. ttl bounds how long a crashed
// holder can block a key; a live holder renews it every ttl/3 until unlock.
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		retryDelay: 10 * time.Millisecond,
	}
}

// Lock polls SET NX until the key is held or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.New().String()
	delay := l.retryDelay

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if delay < 200*time.Millisecond {
			delay *= 2
		}
	}

	stopRenew := make(chan struct{})
	renewDone := make(chan struct{})
	go l.renew(lockKey, token, stopRenew, renewDone)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopRenew)
			<-renewDone
			l.release(key, lockKey, token)
		})
	}, nil
}

// renew keeps extending the lock until stop is closed or the lock was lost
func (l *RedisLocker) renew(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
		extended, err := extendScript.Run(ctx, l.client, []string{lockKey}, token, l.ttl.Milliseconds()).Int64()
		cancel()
		if err != nil {
			log.WithFields(log.Fields{
				"key":   lockKey,
				"error": err,
			}).Warn("Failed to renew redis lock")
			continue
		}
		if extended == 0 {
			log.WithField("key", lockKey).Warn("Redis lock expired before it was released")
			return
		}
	}
}

func (l *RedisLocker) release(key, lockKey, token string) {
	// The caller's ctx may already be cancelled; release regardless
	releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.WithFields(log.Fields{
			"key":   key,
			"error": err,
		}).Warn("Failed to release redis lock")
	}
}
