package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/rentbill/internal/clock"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker keeps a job from running on two replicas at once.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type RedisLocker struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := checkLockArgs(key, ttl); err != nil {
		return "", false, err
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// LocalLocker is the single-instance fallback used without Redis.
type LocalLocker struct {
	mu    sync.Mutex
	clock clock.Clock
	held  map[string]localLease
}

type localLease struct {
	token     string
	expiresAt time.Time
}

func NewLocalLocker(clk clock.Clock) *LocalLocker {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &LocalLocker{clock: clk, held: map[string]localLease{}}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := checkLockArgs(key, ttl); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = localLease{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lease, ok := l.held[key]; ok && lease.token == token {
		delete(l.held, key)
	}
	return nil
}

func checkLockArgs(key string, ttl time.Duration) error {
	if key == "" {
		return errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return errors.New("lock ttl must be positive")
	}
	return nil
}
