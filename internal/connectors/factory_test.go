package connectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/suitetalk/internal/connectors/netsuite"
	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// mockAuthenticator implements driven.Authenticator for testing.
type mockAuthenticator struct{}

func (mockAuthenticator) Authenticate(_ context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Test ok")
	return nil
}

func oauth1Creds(hostname string) domain.Credentials {
	return domain.Credentials{
		Type: domain.AuthOAuth1,
		OAuth1: &domain.OAuth1Credentials{
			Hostname:       hostname,
			AccountID:      "1234567",
			ConsumerKey:    "ck",
			ConsumerSecret: "cs",
			TokenKey:       "tk",
			TokenSecret:    "ts",
		},
	}
}

func oauth2Creds() domain.Credentials {
	return domain.Credentials{
		Type: domain.AuthOAuth2,
		OAuth2: &domain.OAuth2Credentials{
			AccountID:   "1234567_SB1",
			ClientID:    "client",
			AccessToken: "at",
		},
	}
}

func TestNewFactory(t *testing.T) {
	t.Run("creates factory with default builders", func(t *testing.T) {
		factory := NewFactory(Dependencies{})

		require.NotNil(t, factory)
		assert.Equal(t, []domain.AuthType{domain.AuthOAuth1, domain.AuthOAuth2}, factory.SupportedAuthTypes())
	})

	t.Run("factory implements ConnectorFactory interface", func(t *testing.T) {
		factory := NewFactory(Dependencies{})
		var _ driven.ConnectorFactory = factory
	})
}

func TestFactory_Create(t *testing.T) {
	t.Run("oauth1 signs requests against the configured host", func(t *testing.T) {
		var authHeader string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"1"}`))
		}))
		defer server.Close()

		// httptest serves plain HTTP; swap the builder's base URL for the test server.
		factory := NewFactory(Dependencies{})
		defaultBuilder := factory.builders[domain.AuthOAuth1]
		factory.Register(domain.AuthOAuth1, func(creds domain.Credentials) (Authentication, error) {
			auth, err := defaultBuilder(creds)
			auth.BaseURL = server.URL
			return auth, err
		})

		connector, err := factory.Create(oauth1Creds(""))
		require.NoError(t, err)

		results, err := connector.Run(context.Background(), nil, domain.OperationParams{
			Operation: domain.OpGetRecord, RecordType: "customer", InternalID: "1",
		}, false)
		require.NoError(t, err)

		assert.Equal(t, "1", results[0].JSON["id"])
		params, err := netsuite.ParseAuthorizationHeader(authHeader)
		require.NoError(t, err)
		assert.Equal(t, "1234567", params["realm"])
		assert.Equal(t, "ck", params["oauth_consumer_key"])
	})

	t.Run("returns error for unknown auth type", func(t *testing.T) {
		factory := NewFactory(Dependencies{})

		connector, err := factory.Create(domain.Credentials{Type: "saml"})

		require.Error(t, err)
		assert.Nil(t, connector)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "saml")
	})

	t.Run("returns error when oauth1 fields are missing", func(t *testing.T) {
		factory := NewFactory(Dependencies{})

		_, err := factory.Create(domain.Credentials{Type: domain.AuthOAuth1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		creds := oauth1Creds("")
		creds.OAuth1.ConsumerKey = ""
		_, err = factory.Create(creds)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("creates connector with custom builder", func(t *testing.T) {
		var seen string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		factory := NewFactory(Dependencies{})
		factory.Register("custom", func(domain.Credentials) (Authentication, error) {
			return Authentication{Authenticator: mockAuthenticator{}, BaseURL: server.URL}, nil
		})

		connector, err := factory.Create(domain.Credentials{Type: "custom"})
		require.NoError(t, err)

		_, err = connector.Run(context.Background(), nil, domain.OperationParams{
			Operation: domain.OpRemoveRecord, RecordType: "customer", InternalID: "1",
		}, false)
		require.NoError(t, err)
		assert.Equal(t, "Test ok", seen)
		assert.Contains(t, factory.SupportedAuthTypes(), domain.AuthType("custom"))
	})

	t.Run("builder error is propagated", func(t *testing.T) {
		factory := NewFactory(Dependencies{})

		expectedErr := errors.New("custom builder error")
		factory.Register("error-builder", func(domain.Credentials) (Authentication, error) {
			return Authentication{}, expectedErr
		})

		connector, err := factory.Create(domain.Credentials{Type: "error-builder"})

		require.Error(t, err)
		assert.Nil(t, connector)
		assert.Equal(t, expectedErr, err)
	})
}

func TestFactory_Broker(t *testing.T) {
	t.Run("same credentials share one broker", func(t *testing.T) {
		factory := NewFactory(Dependencies{Profile: "p"})

		first, err := factory.Broker(oauth2Creds())
		require.NoError(t, err)
		second, err := factory.Broker(oauth2Creds())
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("rejects oauth1 credentials", func(t *testing.T) {
		factory := NewFactory(Dependencies{})

		_, err := factory.Broker(oauth1Creds(""))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("oauth2 connector uses the broker base url", func(t *testing.T) {
		factory := NewFactory(Dependencies{})

		connector, err := factory.Create(oauth2Creds())
		require.NoError(t, err)
		require.NotNil(t, connector)

		broker, err := factory.Broker(oauth2Creds())
		require.NoError(t, err)
		assert.Equal(t, "https://1234567-sb1.suitetalk.api.netsuite.com",
			broker.(*netsuite.TokenBroker).GetBaseURL())
	})
}

func TestOAuth1BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		account  string
		want     string
	}{
		{name: "hostname", hostname: "1234567.suitetalk.api.netsuite.com", want: "https://1234567.suitetalk.api.netsuite.com"},
		{name: "hostname with scheme", hostname: "https://1234567.suitetalk.api.netsuite.com/", want: "https://1234567.suitetalk.api.netsuite.com"},
		{name: "derived from account", account: "1234567_SB1", want: "https://1234567-sb1.suitetalk.api.netsuite.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oauth1BaseURL(domain.OAuth1Credentials{Hostname: tt.hostname, AccountID: tt.account})
			assert.Equal(t, tt.want, got)
		})
	}
}
