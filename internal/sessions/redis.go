package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// RedisRevoker shares revocations across API replicas. Keys expire with the
// session so nothing needs sweeping.
type RedisRevoker struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisRevoker(rdb redis.Cmdable, now func() time.Time) *RedisRevoker {
	if now == nil {
		now = time.Now
	}
	return &RedisRevoker{rdb: rdb, now: now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	return r.rdb.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	err := r.rdb.Get(ctx, revokedKeyPrefix+sessionID).Err()

	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *RedisRevoker) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
