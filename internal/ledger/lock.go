package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyMutex serializes scans per (teacher, day) within a single process.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*keyLock)}
}

func (m *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = lock
	}
	lock.refs++
	m.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			m.release(key, lock)
		}, nil
	case <-ctx.Done():
		m.release(key, lock)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

func (m *KeyMutex) release(key string, lock *keyLock) {
	m.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

// RedisLocker serializes scans across instances with a SET NX PX lock.
// Acquisition waits up to the lock TTL; a lock that cannot be taken in time
// surfaces as ErrUnavailable rather than being queued.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

const scanLockPrefix = "attendance:scanlock:"

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := scanLockPrefix + key
	deadline := time.Now().Add(l.ttl)
	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: scan lock timeout", ErrUnavailable)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}, nil
}
