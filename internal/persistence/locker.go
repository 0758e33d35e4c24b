package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another owner")

// Locker grants short-lived exclusive claims on a key.
type Locker interface {
	// Acquire claims key for ttl and returns the function that releases it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// releaseScript deletes the key only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

type redisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker builds a Locker on SET NX PX so claims hold across service instances.
func NewRedisLocker(client redis.UniversalClient, prefix string) Locker {
	return &redisLocker{client: client, prefix: prefix}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
	}, nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]localClaim
}

type localClaim struct {
	token   string
	expires time.Time
}

// NewLocalLocker builds an in-process Locker for single-instance deployments.
func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]localClaim)}
}

func (l *localLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if claim, ok := l.held[key]; ok && now.Before(claim.expires) {
		return nil, ErrLockHeld
	}
	token := uuid.NewString()
	l.held[key] = localClaim{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if claim, ok := l.held[key]; ok && claim.token == token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
