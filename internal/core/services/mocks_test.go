package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// mockConnector records the operations it runs.
type mockConnector struct {
	mu    sync.Mutex
	calls []domain.OperationParams
	ecs   []*domain.ExecutionContext
	run   func(ctx context.Context, params domain.OperationParams, continueOnFail bool) ([]domain.Result, error)
}

func (m *mockConnector) Run(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.ecs = append(m.ecs, ec)
	m.mu.Unlock()
	if m.run != nil {
		return m.run(ctx, params, continueOnFail)
	}
	return []domain.Result{{JSON: domain.Item{"id": params.InternalID}}}, nil
}

// mockBroker returns canned tokens.
type mockBroker struct {
	token   *domain.OAuthToken
	err     error
	flows   int
	m2m     int
	refresh int
}

func (m *mockBroker) PerformAuthorizationFlow(context.Context) (*domain.OAuthToken, error) {
	m.flows++
	return m.token, m.err
}

func (m *mockBroker) ClientCredentials(context.Context) (*domain.OAuthToken, error) {
	m.m2m++
	return m.token, m.err
}

func (m *mockBroker) Refresh(context.Context) (*domain.OAuthToken, error) {
	m.refresh++
	return m.token, m.err
}

// mockConnectorFactory hands out a fixed connector and broker.
type mockConnectorFactory struct {
	connector *mockConnector
	broker    *mockBroker
	createErr error
	creates   int
}

func (m *mockConnectorFactory) Create(domain.Credentials) (driven.Connector, error) {
	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.connector, nil
}

func (m *mockConnectorFactory) Broker(domain.Credentials) (driven.TokenBroker, error) {
	return m.broker, nil
}

func (m *mockConnectorFactory) SupportedAuthTypes() []domain.AuthType {
	return []domain.AuthType{domain.AuthOAuth1, domain.AuthOAuth2}
}

// memoryTokenStore is a map-backed TokenStore.
type memoryTokenStore struct {
	tokens map[string]*domain.OAuthToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]*domain.OAuthToken)}
}

func (m *memoryTokenStore) Load(_ context.Context, profile string) (*domain.OAuthToken, error) {
	t, ok := m.tokens[profile]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (m *memoryTokenStore) Save(_ context.Context, profile string, token *domain.OAuthToken) error {
	m.tokens[profile] = token
	return nil
}

func (m *memoryTokenStore) Delete(_ context.Context, profile string) error {
	delete(m.tokens, profile)
	return nil
}
