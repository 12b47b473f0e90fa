package connectors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/connectors/netsuite"
	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Dependencies are the collaborators shared by every connector a factory builds.
type Dependencies struct {
	// Profile keys stored tokens.
	Profile         string
	TokenStore      driven.TokenStore
	Transport       driven.AuthorizationTransport
	TunnelDomain    string
	CallbackTimeout time.Duration
	OnAuthURL       func(authURL string)
	RateLimit       netsuite.RateLimitConfig
	Timeout         time.Duration
	Logger          *zap.Logger
}

// Authentication is what a builder produces for one credential shape.
type Authentication struct {
	Authenticator driven.Authenticator
	BaseURL       string
}

// AuthBuilder builds the authentication for a credential shape.
type AuthBuilder func(creds domain.Credentials) (Authentication, error)

// Factory creates NetSuite connectors keyed by auth type.
type Factory struct {
	deps       Dependencies
	httpClient *http.Client
	limiter    *netsuite.RateLimiter

	mu       sync.RWMutex
	builders map[domain.AuthType]AuthBuilder
	brokers  map[string]*netsuite.TokenBroker
}

// NewFactory creates a factory with the OAuth 1.0a and OAuth 2.0 builders registered.
func NewFactory(deps Dependencies) *Factory {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rl := deps.RateLimit
	if rl == (netsuite.RateLimitConfig{}) {
		rl = netsuite.DefaultRateLimit
	}

	f := &Factory{
		deps:       deps,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    netsuite.NewRateLimiterWithConfig(rl),
		builders:   make(map[domain.AuthType]AuthBuilder),
		brokers:    make(map[string]*netsuite.TokenBroker),
	}
	f.registerDefaultBuilders()
	return f
}

// registerDefaultBuilders registers the built-in auth builders.
func (f *Factory) registerDefaultBuilders() {
	f.Register(domain.AuthOAuth1, func(creds domain.Credentials) (Authentication, error) {
		if creds.OAuth1 == nil {
			return Authentication{}, fmt.Errorf("%w: oauth1 credentials are missing", domain.ErrInvalidInput)
		}
		c := *creds.OAuth1
		if c.AccountID == "" || c.ConsumerKey == "" || c.TokenKey == "" {
			return Authentication{}, fmt.Errorf("%w: oauth1 needs account_id, consumer_key and token_key",
				domain.ErrInvalidInput)
		}
		return Authentication{
			Authenticator: netsuite.NewSigner(c),
			BaseURL:       oauth1BaseURL(c),
		}, nil
	})

	f.Register(domain.AuthOAuth2, func(creds domain.Credentials) (Authentication, error) {
		broker, err := f.broker(creds)
		if err != nil {
			return Authentication{}, err
		}
		return Authentication{Authenticator: broker, BaseURL: broker.GetBaseURL()}, nil
	})
}

// Register adds an auth builder for the given type.
func (f *Factory) Register(authType domain.AuthType, builder AuthBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[authType] = builder
}

// SupportedAuthTypes returns all registered auth types.
func (f *Factory) SupportedAuthTypes() []domain.AuthType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]domain.AuthType, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Create builds a connector for creds.
func (f *Factory) Create(creds domain.Credentials) (driven.Connector, error) {
	f.mu.RLock()
	builder, ok := f.builders[creds.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: auth type %q", domain.ErrInvalidInput, creds.Type)
	}

	auth, err := builder(creds)
	if err != nil {
		return nil, err
	}

	exec := netsuite.NewExecutor(auth.BaseURL, auth.Authenticator,
		netsuite.WithHTTPClient(f.httpClient),
		netsuite.WithRateLimiter(f.limiter),
		netsuite.WithLogger(f.deps.Logger),
	)
	return netsuite.NewClient(exec, f.deps.Logger), nil
}

// Broker returns the shared token broker for OAuth 2.0 credentials.
func (f *Factory) Broker(creds domain.Credentials) (driven.TokenBroker, error) {
	return f.broker(creds)
}

func (f *Factory) broker(creds domain.Credentials) (*netsuite.TokenBroker, error) {
	if creds.Type != domain.AuthOAuth2 || creds.OAuth2 == nil {
		return nil, fmt.Errorf("%w: oauth2 credentials are missing", domain.ErrInvalidInput)
	}
	key := creds.OAuth2.AccountID + "/" + creds.OAuth2.ClientID

	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.brokers[key]; ok {
		return b, nil
	}
	b := netsuite.NewTokenBroker(*creds.OAuth2, netsuite.BrokerConfig{
		Profile:         f.deps.Profile,
		TunnelDomain:    f.deps.TunnelDomain,
		CallbackTimeout: f.deps.CallbackTimeout,
		Store:           f.deps.TokenStore,
		Transport:       f.deps.Transport,
		HTTPClient:      f.httpClient,
		Logger:          f.deps.Logger,
		OnAuthURL:       f.deps.OnAuthURL,
	})
	f.brokers[key] = b
	return b, nil
}

// oauth1BaseURL prefers the configured hostname and falls back to the account host.
func oauth1BaseURL(c domain.OAuth1Credentials) string {
	host := strings.TrimSpace(c.Hostname)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimRight(host, "/")
	if host == "" {
		host = domain.AccountHost(c.AccountID) + ".suitetalk.api.netsuite.com"
	}
	return "https://" + host
}
