package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PoeBlu/ssl/challenge"
	"github.com/PoeBlu/ssl/integration/redis"
)

// fakeCmdable answers the token store's commands from an in-memory map.
type fakeCmdable struct {
	data   map[string]string
	ttls   map[string]time.Duration
	setErr error
	getErr error
	delErr error
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeCmdable) Set(_ context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	if f.setErr != nil {
		return goredis.NewStatusResult("", f.setErr)
	}
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	val, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(val, nil)
}

func (f *fakeCmdable) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	if f.delErr != nil {
		return goredis.NewIntResult(0, f.delErr)
	}
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			removed++
		}
	}
	return goredis.NewIntResult(removed, nil)
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("put and get round trip", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCmdable()
		store := redis.NewTokenStore(fake)

		require.NoError(t, store.Put(ctx, "tok-1", "tok-1.key-auth"))

		keyAuth, err := store.Get(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "tok-1.key-auth", keyAuth)

		assert.Contains(t, fake.data, "acme:challenge:tok-1")
		assert.Equal(t, time.Hour, fake.ttls["acme:challenge:tok-1"])
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		store := redis.NewTokenStore(newFakeCmdable())

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, challenge.ErrTokenNotFound)
	})

	t.Run("delete removes token", func(t *testing.T) {
		t.Parallel()

		store := redis.NewTokenStore(newFakeCmdable())

		require.NoError(t, store.Put(ctx, "tok-2", "tok-2.key-auth"))
		require.NoError(t, store.Delete(ctx, "tok-2"))

		_, err := store.Get(ctx, "tok-2")
		assert.ErrorIs(t, err, challenge.ErrTokenNotFound)
	})

	t.Run("delete unknown token succeeds", func(t *testing.T) {
		t.Parallel()

		store := redis.NewTokenStore(newFakeCmdable())
		assert.NoError(t, store.Delete(ctx, "never-stored"))
	})

	t.Run("custom prefix and ttl", func(t *testing.T) {
		t.Parallel()

		fake := newFakeCmdable()
		store := redis.NewTokenStore(fake,
			redis.WithTokenPrefix("ssl:tokens:"),
			redis.WithTokenTTL(10*time.Minute),
		)

		require.NoError(t, store.Put(ctx, "tok-3", "tok-3.key-auth"))

		assert.Contains(t, fake.data, "ssl:tokens:tok-3")
		assert.Equal(t, 10*time.Minute, fake.ttls["ssl:tokens:tok-3"])
	})

	t.Run("backend failures surface", func(t *testing.T) {
		t.Parallel()

		backendErr := errors.New("connection reset")
		fake := newFakeCmdable()
		fake.setErr = backendErr
		fake.getErr = backendErr
		fake.delErr = backendErr
		store := redis.NewTokenStore(fake)

		assert.ErrorIs(t, store.Put(ctx, "tok", "auth"), backendErr)

		_, err := store.Get(ctx, "tok")
		assert.ErrorIs(t, err, backendErr)
		assert.NotErrorIs(t, err, challenge.ErrTokenNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "tok"), backendErr)
	})
}
