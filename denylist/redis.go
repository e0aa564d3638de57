package denylist

import (
	"context"
	"fmt"
	"time"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "jobboard:auth:revoked:"

var _ auth.TokenDenylist = (*Redis)(nil)

// Redis stores revocations as keys that expire with the token, so
// every instance sharing the server sees them.
type Redis struct {
	rc     redis.Cmdable
	prefix string
	now    func() time.Time
}

// RedisOption configures Redis
type RedisOption func(*Redis)

// WithKeyPrefix namespaces the revocation keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithRedisClock replaces time.Now when computing key TTLs
func WithRedisClock(now func() time.Time) RedisOption {
	return func(r *Redis) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRedis(rc redis.Cmdable, opts ...RedisOption) *Redis {
	r := &Redis{
		rc:     rc,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect opens a client and pings it
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis: address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}

	return client, nil
}

// Key returns the redis key for tokenID
func (r *Redis) Key(tokenID string) string {
	return r.prefix + tokenID
}

func (r *Redis) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := r.rc.Set(ctx, r.Key(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to revoke token: %w", err)
	}
	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rc.Exists(ctx, r.Key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check token: %w", err)
	}
	return n > 0, nil
}
