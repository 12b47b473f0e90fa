package tokenstore

import (
	"context"
	"sync"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure MemoryStore implements the interface.
var _ driven.TokenStore = (*MemoryStore)(nil)

// MemoryStore keeps tokens for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.OAuthToken
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]domain.OAuthToken)}
}

// Load returns a copy of the stored token.
func (s *MemoryStore) Load(_ context.Context, profile string) (*domain.OAuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[profile]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

// Save stores a copy of token.
func (s *MemoryStore) Save(_ context.Context, profile string, token *domain.OAuthToken) error {
	if token == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[profile] = *token
	return nil
}

// Delete removes the token.
func (s *MemoryStore) Delete(_ context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, profile)
	return nil
}
