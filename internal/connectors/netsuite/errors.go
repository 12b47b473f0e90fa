package netsuite

import (
	"errors"
	"net/http"
)

// Status sentinels. Every *domain.APIError returned by this package unwraps
// to one of them, so callers can match failures with errors.Is.
var (
	// ErrUnauthorised is a 401: the signature or access token was rejected.
	ErrUnauthorised = errors.New("netsuite: unauthorised")

	// ErrForbidden is a 403: the role cannot access the record or operation.
	ErrForbidden = errors.New("netsuite: forbidden")

	// ErrNotFound is a 404 for an unknown record, record type or path.
	ErrNotFound = errors.New("netsuite: not found")

	// ErrRateLimited is a 429: the account's concurrency governance was exceeded.
	ErrRateLimited = errors.New("netsuite: rate limited")

	// ErrBadRequest covers 400 and any other rejected 4xx request.
	ErrBadRequest = errors.New("netsuite: bad request")

	// ErrServerError is any 5xx.
	ErrServerError = errors.New("netsuite: server error")
)

var statusSentinels = map[int]error{
	http.StatusUnauthorized:    ErrUnauthorised,
	http.StatusForbidden:       ErrForbidden,
	http.StatusNotFound:        ErrNotFound,
	http.StatusTooManyRequests: ErrRateLimited,
}

// StatusError returns the sentinel for a failing status code, or nil for
// 1xx-3xx.
func StatusError(statusCode int) error {
	if err, ok := statusSentinels[statusCode]; ok {
		return err
	}
	switch {
	case statusCode >= 500:
		return ErrServerError
	case statusCode >= 400:
		return ErrBadRequest
	default:
		return nil
	}
}

// IsUnauthorised reports a rejected signature or token.
func IsUnauthorised(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}

// IsRateLimited reports a governance rejection.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// IsRetryable reports statuses that may succeed when sent again later.
// Nothing here retries; the flag is only surfaced in logs.
func IsRetryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
