package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PoeBlu/ssl/challenge"
)

const (
	defaultTokenPrefix = "acme:challenge:"
	defaultTokenTTL    = time.Hour
)

// cmdable is the slice of the go-redis API the token store needs.
type cmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenStore keeps HTTP-01 challenge tokens in Redis so that any instance
// behind a load balancer can answer a validation request, no matter which
// instance started the order.
type TokenStore struct {
	client cmdable
	prefix string
	ttl    time.Duration
}

var _ challenge.TokenStore = (*TokenStore)(nil)

// TokenStoreOption configures a TokenStore.
type TokenStoreOption func(*TokenStore)

// WithTokenPrefix overrides the key prefix tokens are stored under.
func WithTokenPrefix(prefix string) TokenStoreOption {
	return func(s *TokenStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTokenTTL overrides how long stored tokens live. Validation normally
// completes within seconds; the TTL only bounds leftovers from abandoned
// orders.
func WithTokenTTL(ttl time.Duration) TokenStoreOption {
	return func(s *TokenStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewTokenStore creates a Redis-backed challenge token store.
func NewTokenStore(client cmdable, opts ...TokenStoreOption) *TokenStore {
	s := &TokenStore{
		client: client,
		prefix: defaultTokenPrefix,
		ttl:    defaultTokenTTL,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}

	return s
}

// Put stores the key authorization for a token.
func (s *TokenStore) Put(ctx context.Context, token, keyAuth string) error {
	if err := s.client.Set(ctx, s.prefix+token, keyAuth, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge token: %w", err)
	}
	return nil
}

// Get returns the key authorization for a token. Unknown tokens report
// challenge.ErrTokenNotFound.
func (s *TokenStore) Get(ctx context.Context, token string) (string, error) {
	keyAuth, err := s.client.Get(ctx, s.prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", challenge.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read challenge token: %w", err)
	}
	return keyAuth, nil
}

// Delete removes a token after the authority has validated it.
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.prefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete challenge token: %w", err)
	}
	return nil
}
