package challenge

import (
	"context"
	"sync"
)

// Path is the URL prefix shared by all ACME HTTP-01 challenge requests.
const Path = "/.well-known/acme-challenge/"

// TokenStore holds HTTP-01 challenge responses keyed by token. Implementations
// must be safe for concurrent use: the certifier writes tokens while the
// listening server reads them.
type TokenStore interface {
	// Put stores the key authorization for a token.
	Put(ctx context.Context, token, keyAuth string) error

	// Get returns the key authorization for a token.
	// Returns ErrTokenNotFound when the token is unknown.
	Get(ctx context.Context, token string) (string, error)

	// Delete removes a token after the authority has validated it.
	Delete(ctx context.Context, token string) error
}

// MemoryStore is a process-local TokenStore. It is the default store and
// suits single-instance deployments where the certifier and the listening
// server share a process.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

// Put stores the key authorization for a token.
func (s *MemoryStore) Put(_ context.Context, token, keyAuth string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = keyAuth
	return nil
}

// Get returns the key authorization for a token.
func (s *MemoryStore) Get(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyAuth, ok := s.tokens[token]
	if !ok {
		return "", ErrTokenNotFound
	}
	return keyAuth, nil
}

// Delete removes a token. Deleting an unknown token is not an error.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)
	return nil
}
