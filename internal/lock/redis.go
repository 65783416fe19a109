package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// extendScript resets the expiry only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a Locker backed by SET NX PX. A held lock is renewed every
// third of its TTL, so the TTL only bounds how long a crashed holder can
// block a key.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// Default lock timings.
const (
	DefaultLockTTL   = 10 * time.Second
	DefaultLockRetry = 25 * time.Millisecond
)

// NewRedisLocker creates a RedisLocker. A zero ttl uses DefaultLockTTL.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, retry: DefaultLockRetry}
}

// Lock implements Locker. It polls until the key is free or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			stop, done := make(chan struct{}), make(chan struct{})
			go l.keepAlive(key, token, stop, done)
			return once(func() {
				close(stop)
				<-done
				l.release(key, token)
			}), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// keepAlive extends the lease until stop is closed or the key stops holding
// token.
func (l *RedisLocker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	every := max(l.ttl/3, time.Millisecond)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), every)
		n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
		cancel()
		if err == nil && n == 0 {
			return // lost to expiry
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// a failed release is recovered by the TTL
	_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}
