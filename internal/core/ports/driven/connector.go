package driven

import (
	"context"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

// Connector runs operations against one NetSuite account.
type Connector interface {
	// Run executes one operation and returns its output rows.
	Run(ctx context.Context, ec *domain.ExecutionContext, params domain.OperationParams, continueOnFail bool) ([]domain.Result, error)
}

// TokenBroker obtains and refreshes OAuth 2.0 tokens.
type TokenBroker interface {
	PerformAuthorizationFlow(ctx context.Context) (*domain.OAuthToken, error)
	ClientCredentials(ctx context.Context) (*domain.OAuthToken, error)
	Refresh(ctx context.Context) (*domain.OAuthToken, error)
}

// ConnectorFactory creates connectors from credentials.
type ConnectorFactory interface {
	// Create returns a connector authenticated with creds.
	Create(creds domain.Credentials) (Connector, error)

	// Broker returns the token broker for OAuth 2.0 credentials.
	// The broker is shared with connectors created for the same credentials.
	Broker(creds domain.Credentials) (TokenBroker, error)

	// SupportedAuthTypes lists the registered auth types.
	SupportedAuthTypes() []domain.AuthType
}
