package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/config"
)

const (
	lockKeyPrefix    = "dispatch:assign:lock:"
	redisDialTimeout = 3 * time.Second
)

// ErrRedisDisabled is returned by Ping when Redis is switched off.
var ErrRedisDisabled = errors.New("redis not configured")

// Redis holds the optional client used for cross-instance assignment locks.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis builds a client when enabled. An unreachable server is logged, not
// fatal: lock acquisition fails until it comes back, and readiness reports it.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if !cfg.Enabled {
		logger.Info("redis disabled; assignment locks are process-local")
		return &Redis{logger: logger}
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Redis{client: client, logger: logger}
}

// Enabled reports whether a client was configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.client != nil
}

// Ping is used by the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return ErrRedisDisabled
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() {
	if !r.Enabled() {
		return
	}
	if err := r.client.Close(); err != nil && r.logger != nil {
		r.logger.Warn("close redis client", zap.Error(err))
	}
}

// AssignmentLocker picks the lock backend for per-request assignment serialization.
func (r *Redis) AssignmentLocker() Locker {
	if !r.Enabled() {
		return NewLocalLocker()
	}
	return NewRedisLocker(r.client, lockKeyPrefix)
}
