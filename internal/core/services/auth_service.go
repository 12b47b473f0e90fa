package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driving"
)

// Ensure AuthService implements the interface.
var _ driving.AuthService = (*AuthService)(nil)

// AuthService manages OAuth 2.0 tokens for one profile.
type AuthService struct {
	factory driven.ConnectorFactory
	creds   domain.Credentials
	profile string
	store   driven.TokenStore
	logger  *zap.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(
	factory driven.ConnectorFactory,
	creds domain.Credentials,
	profile string,
	store driven.TokenStore,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		factory: factory,
		creds:   creds,
		profile: profile,
		store:   store,
		logger:  logger,
	}
}

func (s *AuthService) broker() (driven.TokenBroker, error) {
	if s.creds.Type != domain.AuthOAuth2 {
		return nil, fmt.Errorf("%w: profile %q uses %s; token commands need oauth2",
			domain.ErrInvalidInput, s.profile, s.creds.Type)
	}
	if s.factory == nil {
		return nil, fmt.Errorf("connector factory not available")
	}
	return s.factory.Broker(s.creds)
}

// Login runs the interactive authorization code flow.
func (s *AuthService) Login(ctx context.Context) (*domain.OAuthToken, error) {
	b, err := s.broker()
	if err != nil {
		return nil, err
	}
	token, err := b.PerformAuthorizationFlow(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	s.logger.Info("logged in", zap.String("profile", s.profile))
	return token, nil
}

// LoginClientCredentials obtains a token with the client credentials grant.
func (s *AuthService) LoginClientCredentials(ctx context.Context) (*domain.OAuthToken, error) {
	b, err := s.broker()
	if err != nil {
		return nil, err
	}
	token, err := b.ClientCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials: %w", err)
	}
	s.logger.Info("logged in with client credentials", zap.String("profile", s.profile))
	return token, nil
}

// Refresh exchanges the stored refresh token.
func (s *AuthService) Refresh(ctx context.Context) (*domain.OAuthToken, error) {
	b, err := s.broker()
	if err != nil {
		return nil, err
	}
	return b.Refresh(ctx)
}

// Status returns the stored token.
func (s *AuthService) Status(ctx context.Context) (*domain.OAuthToken, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.Load(ctx, s.profile)
}

// Logout removes the stored token.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, s.profile); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	s.logger.Info("logged out", zap.String("profile", s.profile))
	return nil
}
