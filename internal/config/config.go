// Package config holds the profile configuration for suitetalk.
//
// Values come from the TOML profiles file and are then overridden by
// environment variables through ApplyEnv. Everything below the CLI receives
// its settings through these structs and never reads the environment itself.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/logger"
)

// DefaultProfileName is used when no profile is selected.
const DefaultProfileName = "default"

// Defaults applied to zero values.
const (
	DefaultConcurrency       = 1
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10
	DefaultTimeout           = 60 * time.Second
	DefaultCallbackAddr      = "127.0.0.1:8787"
	DefaultCallbackPath      = "/oauth/callback"
	DefaultCallbackTimeout   = 180 * time.Second
	DefaultTokenStore        = "sqlite"
)

// Config is the contents of the profiles file.
type Config struct {
	DefaultProfile string              `toml:"default_profile"`
	Log            logger.Config       `toml:"log"`
	Profiles       map[string]*Profile `toml:"profiles"`
}

// Profile is one NetSuite account and the way to reach it.
type Profile struct {
	AuthType domain.AuthType           `toml:"auth_type"`
	OAuth1   *domain.OAuth1Credentials `toml:"oauth1,omitempty"`
	OAuth2   *domain.OAuth2Credentials `toml:"oauth2,omitempty"`

	Concurrency       int     `toml:"concurrency"`
	ContinueOnFail    bool    `toml:"continue_on_fail"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	// Timeout is the per-request HTTP timeout, as a Go duration string.
	Timeout string `toml:"timeout"`

	// TokenStore is memory, sqlite or keychain.
	TokenStore     string `toml:"token_store"`
	TokenStorePath string `toml:"token_store_path,omitempty"`

	Callback Callback `toml:"callback"`
}

// Callback configures where the OAuth 2.0 redirect is received.
type Callback struct {
	// Addr is the local listen address of the loopback listener.
	Addr string `toml:"addr"`
	Path string `toml:"path"`
	// TunnelDomain is the public domain forwarding to Addr, registered as the redirect URI.
	TunnelDomain string `toml:"tunnel_domain"`
	Timeout      string `toml:"timeout"`
	// Disabled turns off the interactive flow (headless hosts).
	Disabled bool `toml:"disabled"`
}

// Default returns an empty configuration with default logging.
func Default() *Config {
	return &Config{
		DefaultProfile: DefaultProfileName,
		Log:            logger.DefaultConfig(),
		Profiles:       make(map[string]*Profile),
	}
}

// Dir returns the suitetalk configuration directory (~/.suitetalk).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".suitetalk"), nil
}

// DefaultPath returns the default profiles file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	defaults := logger.DefaultConfig()
	if c.DefaultProfile == "" {
		c.DefaultProfile = DefaultProfileName
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = defaults.Output
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = defaults.MaxSize
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = defaults.MaxBackups
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = defaults.MaxAge
	}
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}
	for _, p := range c.Profiles {
		p.ApplyDefaults()
	}
}

// ApplyDefaults fills zero values.
func (p *Profile) ApplyDefaults() {
	if p.Concurrency <= 0 {
		p.Concurrency = DefaultConcurrency
	}
	if p.RequestsPerSecond <= 0 {
		p.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if p.Burst <= 0 {
		p.Burst = DefaultBurst
	}
	if p.TokenStore == "" {
		p.TokenStore = DefaultTokenStore
	}
	if p.Callback.Addr == "" {
		p.Callback.Addr = DefaultCallbackAddr
	}
	if p.Callback.Path == "" {
		p.Callback.Path = DefaultCallbackPath
	}
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile resolves name (or the default profile when empty).
func (c *Config) Profile(name string) (*Profile, string, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		name = DefaultProfileName
	}
	p, ok := c.Profiles[name]
	if !ok {
		return nil, name, fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
	}
	return p, name, nil
}

// Validate checks every profile.
func (c *Config) Validate() error {
	for _, name := range c.ProfileNames() {
		if err := c.Profiles[name].Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks that the profile is usable.
func (p *Profile) Validate() error {
	if !p.AuthType.Valid() {
		return fmt.Errorf("%w: auth_type must be oauth1 or oauth2, got %q", domain.ErrInvalidInput, p.AuthType)
	}
	if _, err := parseDuration("timeout", p.Timeout); err != nil {
		return err
	}
	if _, err := parseDuration("callback.timeout", p.Callback.Timeout); err != nil {
		return err
	}
	switch p.TokenStore {
	case "", "memory", "sqlite", "keychain":
	default:
		return fmt.Errorf("%w: token_store must be memory, sqlite or keychain, got %q", domain.ErrInvalidInput, p.TokenStore)
	}
	if p.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// Credentials returns the tagged credential union for the profile's auth type.
func (p *Profile) Credentials() (domain.Credentials, error) {
	switch p.AuthType {
	case domain.AuthOAuth1:
		if p.OAuth1 == nil {
			return domain.Credentials{}, fmt.Errorf("%w: [oauth1] section is missing", domain.ErrInvalidInput)
		}
		c := *p.OAuth1
		return domain.Credentials{Type: domain.AuthOAuth1, OAuth1: &c}, nil
	case domain.AuthOAuth2:
		if p.OAuth2 == nil {
			return domain.Credentials{}, fmt.Errorf("%w: [oauth2] section is missing", domain.ErrInvalidInput)
		}
		c := *p.OAuth2
		c.Scopes = append([]string(nil), p.OAuth2.Scopes...)
		return domain.Credentials{Type: domain.AuthOAuth2, OAuth2: &c}, nil
	default:
		return domain.Credentials{}, fmt.Errorf("%w: auth type %q", domain.ErrInvalidInput, p.AuthType)
	}
}

// RequestTimeout returns the HTTP timeout.
func (p *Profile) RequestTimeout() time.Duration {
	d, err := parseDuration("timeout", p.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// CallbackTimeout returns how long to wait for the authorization redirect.
func (p *Profile) CallbackTimeout() time.Duration {
	d, err := parseDuration("callback.timeout", p.Callback.Timeout)
	if err != nil || d <= 0 {
		return DefaultCallbackTimeout
	}
	return d
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return d, nil
}
