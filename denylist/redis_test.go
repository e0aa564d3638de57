package denylist_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-jobboard-auth/denylist"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands the denylist uses
type fakeRedis struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.keys[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "exists")
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedis_Revoke(t *testing.T) {
	clk := newClock()
	rc := newFakeRedis()
	r := denylist.NewRedis(rc, denylist.WithRedisClock(clk.Now))
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "jti-1", clk.Now().Add(30*time.Minute)))

	assert.Equal(t, 30*time.Minute, rc.keys[denylist.DefaultKeyPrefix+"jti-1"])

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedis_SkipsExpired(t *testing.T) {
	clk := newClock()
	rc := newFakeRedis()
	r := denylist.NewRedis(rc, denylist.WithRedisClock(clk.Now), denylist.WithKeyPrefix("t:"))

	require.NoError(t, r.Revoke(context.Background(), "jti", clk.Now().Add(-time.Minute)))
	assert.Empty(t, rc.keys)
	assert.Equal(t, "t:jti", r.Key("jti"))
}

func TestRedis_Errors(t *testing.T) {
	rc := newFakeRedis()
	rc.err = errors.New("connection refused")
	r := denylist.NewRedis(rc)
	ctx := context.Background()

	assert.Error(t, r.Revoke(ctx, "jti", time.Now().Add(time.Hour)))

	_, err := r.IsRevoked(ctx, "jti")
	assert.Error(t, err)
}

func TestConnect_EmptyAddress(t *testing.T) {
	_, err := denylist.Connect(context.Background(), "", "", 0)
	assert.Error(t, err)
}
