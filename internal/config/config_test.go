package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{name: "oauth1", profile: Profile{AuthType: domain.AuthOAuth1}},
		{name: "oauth2 with durations", profile: Profile{AuthType: domain.AuthOAuth2, Timeout: "10s", Callback: Callback{Timeout: "2m"}}},
		{name: "unknown auth type", profile: Profile{AuthType: "basic"}, wantErr: true},
		{name: "bad timeout", profile: Profile{AuthType: domain.AuthOAuth1, Timeout: "ten"}, wantErr: true},
		{name: "bad callback timeout", profile: Profile{AuthType: domain.AuthOAuth1, Callback: Callback{Timeout: "x"}}, wantErr: true},
		{name: "bad token store", profile: Profile{AuthType: domain.AuthOAuth1, TokenStore: "vault"}, wantErr: true},
		{name: "negative concurrency", profile: Profile{AuthType: domain.AuthOAuth1, Concurrency: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProfile_Credentials(t *testing.T) {
	t.Run("oauth1 copy", func(t *testing.T) {
		p := &Profile{AuthType: domain.AuthOAuth1, OAuth1: &domain.OAuth1Credentials{AccountID: "1"}}

		creds, err := p.Credentials()
		require.NoError(t, err)
		assert.Equal(t, domain.AuthOAuth1, creds.Type)
		creds.OAuth1.AccountID = "changed"
		assert.Equal(t, "1", p.OAuth1.AccountID)
	})

	t.Run("oauth2 copy", func(t *testing.T) {
		p := &Profile{AuthType: domain.AuthOAuth2, OAuth2: &domain.OAuth2Credentials{ClientID: "c", Scopes: []string{"a"}}}

		creds, err := p.Credentials()
		require.NoError(t, err)
		creds.OAuth2.Scopes[0] = "b"
		assert.Equal(t, "a", p.OAuth2.Scopes[0])
	})

	t.Run("missing section", func(t *testing.T) {
		_, err := (&Profile{AuthType: domain.AuthOAuth2}).Credentials()
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestProfile_Durations(t *testing.T) {
	p := &Profile{}
	assert.Equal(t, DefaultTimeout, p.RequestTimeout())
	assert.Equal(t, DefaultCallbackTimeout, p.CallbackTimeout())

	p.Timeout = "15s"
	p.Callback.Timeout = "1m"
	assert.Equal(t, 15*time.Second, p.RequestTimeout())
	assert.Equal(t, time.Minute, p.CallbackTimeout())
}

func TestConfig_Profile(t *testing.T) {
	cfg := Default()
	cfg.Profiles["default"] = &Profile{AuthType: domain.AuthOAuth1}

	p, name, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "default", name)
	assert.NotNil(t, p)

	_, _, err = cfg.Profile("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Run("oauth1 profile from environment only", func(t *testing.T) {
		cfg := Default()

		err := cfg.ApplyEnv(envMap(map[string]string{
			EnvAccountID:      "1234567_SB1",
			EnvConsumerKey:    "ck",
			EnvConsumerSecret: "cs",
			EnvTokenKey:       "tk",
			EnvTokenSecret:    "ts",
		}))
		require.NoError(t, err)

		p, _, err := cfg.Profile("")
		require.NoError(t, err)
		assert.Equal(t, domain.AuthOAuth1, p.AuthType)
		assert.Equal(t, "1234567_SB1", p.OAuth1.AccountID)
		assert.Equal(t, "ts", p.OAuth1.TokenSecret)
		assert.Nil(t, p.OAuth2)
		assert.Equal(t, DefaultConcurrency, p.Concurrency)
	})

	t.Run("oauth2 account id goes to oauth2 credentials", func(t *testing.T) {
		cfg := Default()

		err := cfg.ApplyEnv(envMap(map[string]string{
			EnvClientID:  "client",
			EnvAccountID: "1234567",
		}))
		require.NoError(t, err)

		p := cfg.Profiles[DefaultProfileName]
		assert.Equal(t, domain.AuthOAuth2, p.AuthType)
		assert.Equal(t, "1234567", p.OAuth2.AccountID)
		assert.Nil(t, p.OAuth1)
	})

	t.Run("overrides selected profile", func(t *testing.T) {
		cfg := Default()
		cfg.Profiles["prod"] = &Profile{
			AuthType: domain.AuthOAuth2,
			OAuth2:   &domain.OAuth2Credentials{ClientID: "file", ClientSecret: "keep"},
		}

		err := cfg.ApplyEnv(envMap(map[string]string{
			EnvProfile:     "prod",
			EnvClientID:    "env",
			EnvConcurrency: "8",
			EnvNgrokDomain: "abc.ngrok.app",
			EnvLogLevel:    "debug",
		}))
		require.NoError(t, err)

		p := cfg.Profiles["prod"]
		assert.Equal(t, "prod", cfg.DefaultProfile)
		assert.Equal(t, "env", p.OAuth2.ClientID)
		assert.Equal(t, "keep", p.OAuth2.ClientSecret)
		assert.Equal(t, 8, p.Concurrency)
		assert.Equal(t, "abc.ngrok.app", p.Callback.TunnelDomain)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.NotContains(t, cfg.Profiles, DefaultProfileName)
	})

	t.Run("suitetalk tunnel domain wins over ngrok", func(t *testing.T) {
		cfg := Default()

		require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
			EnvAuthType:     "OAUTH2",
			EnvTunnelDomain: "mine.example.com",
			EnvNgrokDomain:  "abc.ngrok.app",
		})))

		p := cfg.Profiles[DefaultProfileName]
		assert.Equal(t, domain.AuthOAuth2, p.AuthType)
		assert.Equal(t, "mine.example.com", p.Callback.TunnelDomain)
	})

	t.Run("empty environment leaves config untouched", func(t *testing.T) {
		cfg := Default()

		require.NoError(t, cfg.ApplyEnv(envMap(nil)))
		assert.Empty(t, cfg.Profiles)
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		cfg := Default()

		err := cfg.ApplyEnv(envMap(map[string]string{EnvConcurrency: "zero"}))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
