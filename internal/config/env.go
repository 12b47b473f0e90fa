package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

// LookupFunc reads an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Environment variables recognised by ApplyEnv.
const (
	EnvProfile        = "SUITETALK_PROFILE"
	EnvLogLevel       = "SUITETALK_LOG_LEVEL"
	EnvLogFormat      = "SUITETALK_LOG_FORMAT"
	EnvAuthType       = "SUITETALK_AUTH_TYPE"
	EnvAccountID      = "SUITETALK_ACCOUNT_ID"
	EnvHostname       = "SUITETALK_HOSTNAME"
	EnvConsumerKey    = "SUITETALK_CONSUMER_KEY"
	EnvConsumerSecret = "SUITETALK_CONSUMER_SECRET"
	EnvTokenKey       = "SUITETALK_TOKEN_KEY"
	EnvTokenSecret    = "SUITETALK_TOKEN_SECRET"
	EnvClientID       = "SUITETALK_CLIENT_ID"
	EnvClientSecret   = "SUITETALK_CLIENT_SECRET"
	EnvAuthURI        = "SUITETALK_AUTH_URI"
	EnvAccessTokenURI = "SUITETALK_ACCESS_TOKEN_URI"
	EnvAccessToken    = "SUITETALK_ACCESS_TOKEN"
	EnvRefreshToken   = "SUITETALK_REFRESH_TOKEN"
	EnvCertificateID  = "SUITETALK_CERTIFICATE_ID"
	EnvPrivateKey     = "SUITETALK_PRIVATE_KEY"
	EnvConcurrency    = "SUITETALK_CONCURRENCY"
	EnvTokenStore     = "SUITETALK_TOKEN_STORE"
	EnvCallbackAddr   = "SUITETALK_CALLBACK_ADDR"
	EnvTunnelDomain   = "SUITETALK_TUNNEL_DOMAIN"
	// EnvNgrokDomain is honoured when SUITETALK_TUNNEL_DOMAIN is unset.
	EnvNgrokDomain = "NGROK_DOMAIN"
)

// ApplyEnv overrides configuration from the environment. Profile-level
// variables apply to the selected profile, which is created when missing.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get(EnvProfile); ok {
		c.DefaultProfile = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		c.Log.Format = v
	}

	name := c.DefaultProfile
	if name == "" {
		name = DefaultProfileName
	}
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}
	p, exists := c.Profiles[name]
	if !exists {
		p = &Profile{}
	}
	touched := false
	set := func(key string, dst *string) bool {
		v, ok := get(key)
		if ok {
			*dst = v
			touched = true
		}
		return ok
	}

	if v, ok := get(EnvAuthType); ok {
		p.AuthType = domain.AuthType(strings.ToLower(v))
		touched = true
	}

	var oauth1 domain.OAuth1Credentials
	if p.OAuth1 != nil {
		oauth1 = *p.OAuth1
	}
	var oauth2 domain.OAuth2Credentials
	if p.OAuth2 != nil {
		oauth2 = *p.OAuth2
	}

	oauth1Touched := false
	for key, dst := range map[string]*string{
		EnvHostname:       &oauth1.Hostname,
		EnvConsumerKey:    &oauth1.ConsumerKey,
		EnvConsumerSecret: &oauth1.ConsumerSecret,
		EnvTokenKey:       &oauth1.TokenKey,
		EnvTokenSecret:    &oauth1.TokenSecret,
	} {
		oauth1Touched = set(key, dst) || oauth1Touched
	}

	oauth2Touched := false
	for key, dst := range map[string]*string{
		EnvClientID:       &oauth2.ClientID,
		EnvClientSecret:   &oauth2.ClientSecret,
		EnvAuthURI:        &oauth2.AuthURI,
		EnvAccessTokenURI: &oauth2.AccessTokenURI,
		EnvAccessToken:    &oauth2.AccessToken,
		EnvRefreshToken:   &oauth2.RefreshToken,
		EnvCertificateID:  &oauth2.CertificateID,
		EnvPrivateKey:     &oauth2.PrivateKeyPEM,
	} {
		oauth2Touched = set(key, dst) || oauth2Touched
	}

	if p.AuthType == "" {
		switch {
		case oauth2Touched && !oauth1Touched:
			p.AuthType = domain.AuthOAuth2
		case oauth1Touched:
			p.AuthType = domain.AuthOAuth1
		}
	}

	// The account id belongs to whichever credential shape is in use.
	if v, ok := get(EnvAccountID); ok {
		touched = true
		if p.AuthType == domain.AuthOAuth2 {
			oauth2.AccountID = v
			oauth2Touched = true
		} else {
			oauth1.AccountID = v
			oauth1Touched = true
			if p.AuthType == "" {
				p.AuthType = domain.AuthOAuth1
			}
		}
	}

	if oauth1Touched {
		p.OAuth1 = &oauth1
	}
	if oauth2Touched {
		p.OAuth2 = &oauth2
	}

	if v, ok := get(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, EnvConcurrency, v)
		}
		p.Concurrency = n
		touched = true
	}
	_ = set(EnvTokenStore, &p.TokenStore)
	_ = set(EnvCallbackAddr, &p.Callback.Addr)
	if v, ok := get(EnvTunnelDomain); ok {
		p.Callback.TunnelDomain = v
		touched = true
	} else if v, ok := get(EnvNgrokDomain); ok {
		p.Callback.TunnelDomain = v
		touched = true
	}

	if exists || touched {
		p.ApplyDefaults()
		c.Profiles[name] = p
	}
	return nil
}
