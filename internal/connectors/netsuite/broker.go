package netsuite

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure TokenBroker implements the interfaces.
var (
	_ driven.Authenticator = (*TokenBroker)(nil)
	_ driven.TokenBroker   = (*TokenBroker)(nil)
)

// DefaultCallbackTimeout bounds the wait for the authorization redirect.
const DefaultCallbackTimeout = 180 * time.Second

// assertionLifetime is how long a client credentials JWT is valid.
// NetSuite rejects assertions that live longer than an hour.
const assertionLifetime = 30 * time.Minute

//nolint:gosec // G101: Not credentials, OAuth assertion type URN
const clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// FlowState is a step of the interactive authorization code flow.
type FlowState int

// Authorization flow states.
const (
	FlowIdle FlowState = iota
	FlowServerStarted
	FlowAwaitingRedirect
	FlowCodeReceived
	FlowExchangingToken
	FlowTokenStored
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowServerStarted:
		return "server_started"
	case FlowAwaitingRedirect:
		return "awaiting_redirect"
	case FlowCodeReceived:
		return "code_received"
	case FlowExchangingToken:
		return "exchanging_token"
	case FlowTokenStored:
		return "token_stored"
	case FlowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BrokerConfig holds the collaborators of a TokenBroker.
type BrokerConfig struct {
	// Profile keys the token in Store.
	Profile string
	// TunnelDomain is the public host that forwards to the callback listener.
	TunnelDomain string
	// CallbackTimeout defaults to DefaultCallbackTimeout.
	CallbackTimeout time.Duration
	// Store persists tokens between executions. Optional.
	Store driven.TokenStore
	// Transport receives the authorization redirect. Optional for headless use.
	Transport driven.AuthorizationTransport
	// HTTPClient is used for token endpoint and API calls.
	HTTPClient *http.Client
	Logger     *zap.Logger
	// OnAuthURL is called with the URL the user must open.
	OnAuthURL func(authURL string)
}

// RequestSpec is a request made directly through the broker.
// URL may be absolute or relative to GetBaseURL.
type RequestSpec struct {
	Method string
	URL    string
	Header http.Header
	Body   io.Reader
}

// TokenBroker obtains, refreshes and applies OAuth 2.0 bearer tokens.
type TokenBroker struct {
	creds      domain.OAuth2Credentials
	cfg        BrokerConfig
	httpClient *http.Client
	logger     *zap.Logger
	normaliser *Normaliser

	mu    sync.RWMutex
	token *domain.OAuthToken
	state FlowState

	// flowMu serialises interactive flows, which share one callback listener.
	flowMu sync.Mutex
	// ensureMu keeps concurrent requests from refreshing the same token twice.
	ensureMu sync.Mutex
}

// NewTokenBroker creates a broker. A pre-obtained access token in creds is used as-is.
func NewTokenBroker(creds domain.OAuth2Credentials, cfg BrokerConfig) *TokenBroker {
	if cfg.CallbackTimeout <= 0 {
		cfg.CallbackTimeout = DefaultCallbackTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &TokenBroker{
		creds:      creds,
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "token_broker")),
		normaliser: NewNormaliser(logger),
	}
	if creds.AccessToken != "" {
		b.token = &domain.OAuthToken{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			TokenType:    "Bearer",
		}
	}
	return b
}

// State returns the current authorization flow state.
func (b *TokenBroker) State() FlowState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *TokenBroker) setState(s FlowState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
	b.logger.Debug("authorization flow state", zap.Stringer("state", s))
}

// Token returns a copy of the held token, or nil.
func (b *TokenBroker) Token() *domain.OAuthToken {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.token == nil {
		return nil
	}
	t := *b.token
	return &t
}

// SetToken replaces the held token in memory only.
func (b *TokenBroker) SetToken(token *domain.OAuthToken) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
	if token != nil {
		b.creds.AccessToken = token.AccessToken
		b.creds.RefreshToken = token.RefreshToken
	}
}

// storeToken keeps the token in memory and writes it to the store.
func (b *TokenBroker) storeToken(ctx context.Context, token *domain.OAuthToken) error {
	b.SetToken(token)
	if b.cfg.Store == nil {
		return nil
	}
	if err := b.cfg.Store.Save(ctx, b.cfg.Profile, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// GetBaseURL returns the account's REST host.
func (b *TokenBroker) GetBaseURL() string {
	return "https://" + domain.AccountHost(b.creds.AccountID) + ".suitetalk.api.netsuite.com"
}

// GetAuthorizationHeaders returns the headers for a bearer-authenticated call.
func (b *TokenBroker) GetAuthorizationHeaders() (map[string]string, error) {
	token := b.Token()
	if token == nil || token.AccessToken == "" {
		return nil, domain.ErrNoAccessToken
	}
	return map[string]string{
		"Authorization":                     "Bearer " + token.AccessToken,
		"Content-Type":                      "application/json",
		"Accept":                            "application/json",
		"X-NetSuite-PropertyNameValidation": "strict",
	}, nil
}

// Authenticate loads or refreshes the token as needed and sets the bearer headers on req.
func (b *TokenBroker) Authenticate(ctx context.Context, req *http.Request) error {
	if err := b.ensureToken(ctx); err != nil {
		return err
	}
	headers, err := b.GetAuthorizationHeaders()
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return nil
}

func (b *TokenBroker) ensureToken(ctx context.Context) error {
	b.ensureMu.Lock()
	defer b.ensureMu.Unlock()

	token := b.Token()
	if token == nil && b.cfg.Store != nil {
		stored, err := b.cfg.Store.Load(ctx, b.cfg.Profile)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return fmt.Errorf("load token: %w", err)
		default:
			b.SetToken(stored)
			token = stored
		}
	}
	if token == nil {
		return domain.ErrNoAccessToken
	}
	if token.IsExpired() && token.RefreshToken != "" {
		b.logger.Debug("access token expired, refreshing")
		if _, err := b.refresh(ctx, token.RefreshToken); err != nil {
			return err
		}
	}
	return nil
}

// MakeRequest performs an authenticated call. A 401 becomes a descriptive *domain.APIError.
func (b *TokenBroker) MakeRequest(ctx context.Context, spec RequestSpec) (*domain.Response, error) {
	target, err := b.resolveURL(spec.URL)
	if err != nil {
		return nil, err
	}
	headers, err := b.GetAuthorizationHeaders()
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}
	body := spec.Body
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range spec.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Method: method, URL: target, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Method: method, URL: target, Cause: err}
	}

	if IsUnauthorised(resp.StatusCode) {
		parsed, _ := domain.ParseBody(resp.StatusCode, data)
		return nil, &domain.APIError{
			Kind:       domain.KindAuth,
			StatusCode: resp.StatusCode,
			Message: "authentication failed: NetSuite rejected the OAuth2 access token; " +
				"it may have expired or lack the rest_webservices scope",
			Body:  parsed.AsItem(),
			Cause: ErrUnauthorised,
		}
	}

	return &domain.Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
		Request:    &domain.Request{Method: method, Type: domain.RequestRaw, NextURL: target},
	}, nil
}

func (b *TokenBroker) resolveURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(b.GetBaseURL() + "/")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimPrefix(u.Path, "/")
	return base.ResolveReference(u).String(), nil
}

// HandleNetsuiteResponse maps a response to an output item or an error.
func (b *TokenBroker) HandleNetsuiteResponse(
	ec *domain.ExecutionContext,
	resp *domain.Response,
	continueOnFail bool,
) (domain.Result, error) {
	return b.normaliser.Handle(ec, resp, continueOnFail)
}

func (b *TokenBroker) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     b.creds.ClientID,
		ClientSecret: b.creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   b.creds.AuthURI,
			TokenURL:  b.creds.AccessTokenURI,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: redirectURL,
		Scopes:      b.creds.Scopes,
	}
}

// clientContext makes x/oauth2 use the broker's HTTP client.
func (b *TokenBroker) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
}

// CallbackURL returns the public redirect URI derived from the tunnel domain.
func (b *TokenBroker) CallbackURL() (string, error) {
	domainName := strings.TrimSpace(b.cfg.TunnelDomain)
	domainName = strings.TrimPrefix(domainName, "https://")
	domainName = strings.TrimPrefix(domainName, "http://")
	domainName = strings.TrimRight(domainName, "/")
	if domainName == "" {
		return "", domain.ErrTunnelDomainMissing
	}
	path := "/oauth/callback"
	if b.cfg.Transport != nil {
		path = b.cfg.Transport.RedirectPath()
	}
	return "https://" + domainName + path, nil
}

// BuildAuthURL returns the provider authorization URL for the given redirect and state.
func (b *TokenBroker) BuildAuthURL(redirectURL, state string) string {
	return b.oauth2Config(redirectURL).AuthCodeURL(state)
}

// PerformAuthorizationFlow runs the interactive authorization code flow and
// stores the resulting token pair.
func (b *TokenBroker) PerformAuthorizationFlow(ctx context.Context) (*domain.OAuthToken, error) {
	if !b.creds.HasFlowOptions() {
		return nil, domain.ErrMissingOAuth2Options
	}
	redirectURL, err := b.CallbackURL()
	if err != nil {
		return nil, err
	}
	if b.cfg.Transport == nil {
		return nil, errors.New("no authorization transport configured")
	}

	b.flowMu.Lock()
	defer b.flowMu.Unlock()

	b.setState(FlowIdle)
	callbacks, err := b.cfg.Transport.Start(ctx)
	if err != nil {
		b.setState(FlowFailed)
		return nil, fmt.Errorf("start callback listener: %w", err)
	}
	defer func() {
		if stopErr := b.cfg.Transport.Stop(context.Background()); stopErr != nil {
			b.logger.Warn("stop callback listener", zap.Error(stopErr))
		}
	}()
	b.setState(FlowServerStarted)

	state := uuid.NewString()
	oc := b.oauth2Config(redirectURL)
	authURL := oc.AuthCodeURL(state)
	if b.cfg.OnAuthURL != nil {
		b.cfg.OnAuthURL(authURL)
	}
	b.logger.Info("waiting for authorization redirect",
		zap.String("redirect_uri", redirectURL),
		zap.Duration("timeout", b.cfg.CallbackTimeout))
	b.setState(FlowAwaitingRedirect)

	timer := time.NewTimer(b.cfg.CallbackTimeout)
	defer timer.Stop()

	var cb driven.AuthorizationCallback
	select {
	case <-ctx.Done():
		b.setState(FlowFailed)
		return nil, ctx.Err()
	case <-timer.C:
		b.setState(FlowFailed)
		return nil, domain.ErrAuthorizationTimeout
	case received, ok := <-callbacks:
		if !ok {
			b.setState(FlowFailed)
			return nil, errors.New("callback listener closed before a redirect arrived")
		}
		cb = received
	}

	if cb.Error != "" {
		b.setState(FlowFailed)
		if cb.ErrorDescription != "" {
			return nil, fmt.Errorf("%w: %s: %s", domain.ErrAuthorizationDenied, cb.Error, cb.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrAuthorizationDenied, cb.Error)
	}
	if cb.State != state {
		b.setState(FlowFailed)
		return nil, domain.ErrStateMismatch
	}
	if cb.Code == "" {
		b.setState(FlowFailed)
		return nil, fmt.Errorf("%w: redirect carried no code", domain.ErrAuthorizationDenied)
	}
	b.setState(FlowCodeReceived)

	b.setState(FlowExchangingToken)
	tok, err := oc.Exchange(b.clientContext(ctx), cb.Code)
	if err != nil {
		b.setState(FlowFailed)
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	token := fromOAuth2Token(tok)
	if err := b.storeToken(ctx, token); err != nil {
		b.setState(FlowFailed)
		return nil, err
	}
	b.setState(FlowTokenStored)
	b.logger.Info("authorization complete")
	return token, nil
}

// Refresh exchanges the held refresh token for a new token pair.
func (b *TokenBroker) Refresh(ctx context.Context) (*domain.OAuthToken, error) {
	token := b.Token()
	if token == nil && b.cfg.Store != nil {
		stored, err := b.cfg.Store.Load(ctx, b.cfg.Profile)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load token: %w", err)
		}
		token = stored
	}
	if token == nil || token.RefreshToken == "" {
		return nil, errors.New("no refresh token available")
	}
	return b.refresh(ctx, token.RefreshToken)
}

func (b *TokenBroker) refresh(ctx context.Context, refreshToken string) (*domain.OAuthToken, error) {
	if b.creds.AccessTokenURI == "" {
		return nil, domain.ErrMissingOAuth2Options
	}
	src := b.oauth2Config("").TokenSource(b.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	token := fromOAuth2Token(tok)
	// NetSuite may omit the refresh token on rotation.
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	if err := b.storeToken(ctx, token); err != nil {
		return nil, err
	}
	b.logger.Debug("access token refreshed", zap.Time("expiry", token.Expiry))
	return token, nil
}

// ClientCredentials obtains a token with the machine-to-machine grant,
// authenticating with a JWT assertion signed by the integration certificate key.
func (b *TokenBroker) ClientCredentials(ctx context.Context) (*domain.OAuthToken, error) {
	if b.creds.ClientID == "" || b.creds.AccessTokenURI == "" ||
		b.creds.CertificateID == "" || b.creds.PrivateKeyPEM == "" {
		return nil, fmt.Errorf("%w: client credentials need client_id, access_token_uri, certificate_id and private_key",
			domain.ErrMissingOAuth2Options)
	}

	assertion, err := b.clientAssertion(time.Now())
	if err != nil {
		return nil, err
	}

	// The assertion replaces the client secret; scopes travel inside it.
	cfg := clientcredentials.Config{
		ClientID:  b.creds.ClientID,
		TokenURL:  b.creds.AccessTokenURI,
		AuthStyle: oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"client_assertion_type": {clientAssertionType},
			"client_assertion":      {assertion},
		},
	}
	tok, err := cfg.Token(b.clientContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("client credentials token: %w", err)
	}

	token := fromOAuth2Token(tok)
	if err := b.storeToken(ctx, token); err != nil {
		return nil, err
	}
	b.logger.Debug("client credentials token obtained", zap.Time("expiry", token.Expiry))
	return token, nil
}

// clientAssertion signs the client credentials JWT. RSA keys use PS256 and
// EC keys use ES256.
func (b *TokenBroker) clientAssertion(now time.Time) (string, error) {
	pemBytes := []byte(b.creds.PrivateKeyPEM)

	var (
		method jwt.SigningMethod
		key    crypto.Signer
	)
	if rsaKey, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes); err == nil {
		method, key = jwt.SigningMethodPS256, rsaKey
	} else if ecKey, ecErr := jwt.ParseECPrivateKeyFromPEM(pemBytes); ecErr == nil {
		method, key = jwt.SigningMethodES256, ecKey
	} else {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	scopes := b.creds.Scopes
	if len(scopes) == 0 {
		scopes = []string{"rest_webservices"}
	}
	claims := jwt.MapClaims{
		"iss":   b.creds.ClientID,
		"scope": strings.Join(scopes, ","),
		"aud":   b.creds.AccessTokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	tok := jwt.NewWithClaims(method, claims)
	tok.Header["kid"] = b.creds.CertificateID

	signed, err := tok.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign client assertion: %w", err)
	}
	return signed, nil
}

func fromOAuth2Token(tok *oauth2.Token) *domain.OAuthToken {
	return &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
