package domain

import (
	"errors"
	"fmt"
)

// Configuration and flow errors.
var (
	// ErrNoAccessToken indicates an OAuth 2.0 header was requested before a token was obtained.
	ErrNoAccessToken = errors.New("no access token available")

	// ErrMissingOAuth2Options indicates the interactive flow lacks auth/token URIs or client credentials.
	ErrMissingOAuth2Options = errors.New("missing required OAuth2 options")

	// ErrTunnelDomainMissing indicates no public callback domain is configured.
	ErrTunnelDomainMissing = errors.New("tunnel domain is not configured; set callback.tunnel_domain or NGROK_DOMAIN")

	// ErrUnsupportedOperation indicates the operation name is unknown.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrAuthorizationTimeout indicates the redirect did not arrive in time.
	ErrAuthorizationTimeout = errors.New("timed out waiting for OAuth2 authorization")

	// ErrAuthorizationDenied indicates the provider redirected with an error.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrStateMismatch indicates the redirect carried an unexpected state value.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrNotFound indicates a stored item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a required parameter is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorKind classifies API failures.
type ErrorKind string

const (
	// KindAuth is a 401/403 authentication or permission failure.
	KindAuth ErrorKind = "auth"
	// KindValidation is a 4xx validation or not-found failure.
	KindValidation ErrorKind = "validation"
	// KindServer is a 5xx failure.
	KindServer ErrorKind = "server"
)

// APIError is a structured error derived from a non-success NetSuite response.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Body       Item
	// Cause is the connector's sentinel for StatusCode, if any.
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the status sentinel.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// KindForStatus classifies an HTTP status code.
func KindForStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == 401 || statusCode == 403:
		return KindAuth
	case statusCode >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// TransportError wraps a failure where no response was received.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}
