package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/suitetalk/internal/config"
	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

const sampleConfig = `
default_profile = "sandbox"

[log]
level = "debug"

[profiles.sandbox]
auth_type = "oauth1"
concurrency = 4
timeout = "30s"

[profiles.sandbox.oauth1]
account_id = "1234567_SB1"
consumer_key = "ck"
consumer_secret = "cs"
token_key = "tk"
token_secret = "ts"

[profiles.prod]
auth_type = "oauth2"
token_store = "keychain"

[profiles.prod.oauth2]
account_id = "1234567"
client_id = "client"
client_secret = "secret"
auth_uri = "https://1234567.app.netsuite.com/app/login/oauth2/authorize.nl"
access_token_uri = "https://1234567.suitetalk.api.netsuite.com/services/rest/auth/oauth2/v1/token"
scopes = ["rest_webservices"]

[profiles.prod.callback]
tunnel_domain = "example.ngrok.app"
timeout = "5m"
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestStore_Load(t *testing.T) {
	t.Run("parses profiles", func(t *testing.T) {
		store, err := NewConfigStore(writeFile(t, sampleConfig))
		require.NoError(t, err)

		cfg, err := store.Load()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "sandbox", cfg.DefaultProfile)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, []string{"prod", "sandbox"}, cfg.ProfileNames())

		sandbox, name, err := cfg.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "sandbox", name)
		assert.Equal(t, domain.AuthOAuth1, sandbox.AuthType)
		assert.Equal(t, 4, sandbox.Concurrency)
		assert.Equal(t, "1234567_SB1", sandbox.OAuth1.AccountID)
		assert.Equal(t, config.DefaultTokenStore, sandbox.TokenStore)
		assert.Equal(t, config.DefaultCallbackAddr, sandbox.Callback.Addr)

		prod, _, err := cfg.Profile("prod")
		require.NoError(t, err)
		assert.Equal(t, "keychain", prod.TokenStore)
		assert.Equal(t, []string{"rest_webservices"}, prod.OAuth2.Scopes)
		assert.Equal(t, "example.ngrok.app", prod.Callback.TunnelDomain)
		assert.Equal(t, config.DefaultConcurrency, prod.Concurrency)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		store, err := NewConfigStore(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)

		cfg, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, config.DefaultProfileName, cfg.DefaultProfile)
		assert.Empty(t, cfg.Profiles)
	})

	t.Run("invalid toml reports position", func(t *testing.T) {
		store, err := NewConfigStore(writeFile(t, "[profiles\nbroken"))
		require.NoError(t, err)

		_, err = store.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse")
	})
}

func TestStore_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	store, err := NewConfigStore(path)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Profiles["default"] = &config.Profile{
		AuthType: domain.AuthOAuth2,
		OAuth2: &domain.OAuth2Credentials{
			AccountID: "1234567",
			ClientID:  "client",
		},
		Concurrency: 3,
	}
	require.NoError(t, store.Save(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	p, _, err := loaded.Profile("default")
	require.NoError(t, err)
	assert.Equal(t, "client", p.OAuth2.ClientID)
	assert.Equal(t, 3, p.Concurrency)
}

func TestNewStore_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	store, err := NewConfigStore("~/.suitetalk/other.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".suitetalk", "other.toml"), store.Path())
}
