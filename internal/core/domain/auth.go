package domain

import (
	"strings"
	"time"
)

// AuthType identifies how requests to NetSuite are authenticated.
type AuthType string

const (
	// AuthOAuth1 signs every request with an OAuth 1.0a token-based authentication header.
	AuthOAuth1 AuthType = "oauth1"
	// AuthOAuth2 sends a bearer token obtained from the NetSuite token endpoint.
	AuthOAuth2 AuthType = "oauth2"
)

// Valid reports whether the auth type is known.
func (a AuthType) Valid() bool {
	return a == AuthOAuth1 || a == AuthOAuth2
}

// OAuth1Credentials are the long-lived token-based authentication secrets
// issued by a NetSuite integration record and access token.
type OAuth1Credentials struct {
	Hostname       string `toml:"hostname"`
	AccountID      string `toml:"account_id"`
	ConsumerKey    string `toml:"consumer_key"`
	ConsumerSecret string `toml:"consumer_secret"`
	TokenKey       string `toml:"token_key"`
	TokenSecret    string `toml:"token_secret"`
}

// OAuth2Credentials configure the OAuth 2.0 authorization code and
// client credentials flows. AccessToken and RefreshToken are mutable and are
// replaced whenever the broker obtains a new token pair.
type OAuth2Credentials struct {
	AccountID      string   `toml:"account_id"`
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	AuthURI        string   `toml:"auth_uri"`
	AccessTokenURI string   `toml:"access_token_uri"`
	Scopes         []string `toml:"scopes"`
	AccessToken    string   `toml:"access_token,omitempty"`
	RefreshToken   string   `toml:"refresh_token,omitempty"`

	// CertificateID and PrivateKeyPEM enable the machine-to-machine client
	// credentials grant, which signs a JWT client assertion instead of
	// sending the client secret.
	CertificateID string `toml:"certificate_id,omitempty"`
	PrivateKeyPEM string `toml:"private_key,omitempty"`
}

// HasFlowOptions reports whether the options needed for the interactive
// authorization code flow are all present.
func (c OAuth2Credentials) HasFlowOptions() bool {
	return c.AuthURI != "" && c.AccessTokenURI != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Credentials is the tagged union handed to the connector per execution.
// Type selects which of OAuth1 or OAuth2 is populated.
type Credentials struct {
	Type   AuthType
	OAuth1 *OAuth1Credentials
	OAuth2 *OAuth2Credentials
}

// AccountID returns the NetSuite account id for either credential shape.
func (c Credentials) AccountID() string {
	switch c.Type {
	case AuthOAuth1:
		if c.OAuth1 != nil {
			return c.OAuth1.AccountID
		}
	case AuthOAuth2:
		if c.OAuth2 != nil {
			return c.OAuth2.AccountID
		}
	}
	return ""
}

// OAuthToken holds an OAuth 2.0 token pair.
type OAuthToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// IsExpired reports whether the token has a known expiry that has passed.
func (t *OAuthToken) IsExpired() bool {
	if t == nil || t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// AccountHost converts a NetSuite account id into its REST host label.
// Sandbox ids such as "1234567_SB1" become "1234567-sb1".
func AccountHost(accountID string) string {
	return strings.ToLower(strings.ReplaceAll(accountID, "_", "-"))
}
