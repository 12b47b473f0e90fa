package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// RequestExecutor performs exactly one HTTP call per request.
type RequestExecutor interface {
	Execute(ctx context.Context, req *domain.Request) (*domain.Response, error)
}

// Ensure Executor implements the interface.
var _ RequestExecutor = (*Executor)(nil)

// Executor issues requests against one account's REST host.
// Credentials are applied by the Authenticator; the executor never retries.
type Executor struct {
	baseURL    string
	auth       driven.Authenticator
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) { e.httpClient = c }
}

// WithRateLimiter sets the rate limiter.
func WithRateLimiter(l *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an executor for baseURL (scheme and host, no path).
func NewExecutor(baseURL string, auth driven.Authenticator, opts ...ExecutorOption) *Executor {
	e := &Executor{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       auth,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    NewRateLimiter(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BaseURL returns the REST host.
func (e *Executor) BaseURL() string {
	return e.baseURL
}

// URL derives the request URL. NextURL, when set, is returned unchanged.
func (e *Executor) URL(req *domain.Request) (string, error) {
	if req.NextURL != "" {
		return req.NextURL, nil
	}

	p := strings.TrimLeft(req.Path, "/")
	var u string
	switch req.Type {
	case domain.RequestRecord:
		u = e.baseURL + "/services/rest/record/" + req.APIVersion() + "/" + p
	case domain.RequestSuiteQL:
		u = e.baseURL + "/services/rest/query/" + req.APIVersion() + "/suiteql"
	case domain.RequestWorkbook, domain.RequestRaw, "":
		u = e.baseURL + "/services/rest/" + p
	default:
		return "", fmt.Errorf("%w: unknown request type %q", domain.ErrInvalidInput, req.Type)
	}

	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + req.Query.Encode()
	}
	return u, nil
}

// Execute performs the request and returns the response envelope. Transport
// failures are returned as *domain.TransportError; HTTP error statuses are not errors.
func (e *Executor) Execute(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	target, err := e.URL(req)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader = http.NoBody
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-NetSuite-PropertyNameValidation", "strict")
	if req.Type == domain.RequestSuiteQL {
		httpReq.Header.Set("Prefer", "transient")
	}
	for k, vs := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	if e.auth != nil {
		if err := e.auth.Authenticate(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("authenticate request: %w", err)
		}
	}

	requestID := uuid.NewString()
	start := time.Now()
	e.logger.Debug("netsuite request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", target))

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.TransportError{Method: method, URL: target, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Method: method, URL: target, Cause: err}
	}

	e.logger.Debug("netsuite response",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if IsRateLimited(resp.StatusCode) && e.limiter != nil {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		e.limiter.RecordRateLimitError(retryAfter)
		e.logger.Warn("netsuite rate limit reached", zap.Int("retry_after", retryAfter))
	}

	return &domain.Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
		Request:    req,
	}, nil
}
