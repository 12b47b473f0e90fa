package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure KeychainStore implements the interface.
var _ driven.TokenStore = (*KeychainStore)(nil)

// DefaultKeychainService is the keychain service name for stored tokens.
const DefaultKeychainService = "suitetalk"

// KeychainStore keeps tokens in the system keychain as JSON, one entry per profile.
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
type KeychainStore struct {
	service string
}

// NewKeychainStore creates a keychain store. An empty service uses DefaultKeychainService.
func NewKeychainStore(service string) *KeychainStore {
	if service == "" {
		service = DefaultKeychainService
	}
	return &KeychainStore{service: service}
}

// Load returns the token for profile.
func (s *KeychainStore) Load(_ context.Context, profile string) (*domain.OAuthToken, error) {
	raw, err := keyring.Get(s.service, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keychain get: %w", err)
	}

	var token domain.OAuthToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}

// Save stores the token for profile.
func (s *KeychainStore) Save(_ context.Context, profile string, token *domain.OAuthToken) error {
	if token == nil {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := keyring.Set(s.service, profile, string(data)); err != nil {
		return fmt.Errorf("keychain set: %w", err)
	}
	return nil
}

// Delete removes the token for profile.
func (s *KeychainStore) Delete(_ context.Context, profile string) error {
	err := keyring.Delete(s.service, profile)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}
