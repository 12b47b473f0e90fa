package oauth

import (
	"context"
	"errors"

	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure NoopTransport implements the interface.
var _ driven.AuthorizationTransport = NoopTransport{}

// ErrInteractiveDisabled is returned by NoopTransport.Start.
var ErrInteractiveDisabled = errors.New("interactive authorization is disabled; use a stored token or the client credentials grant")

// NoopTransport is used for headless runs that only refresh tokens.
type NoopTransport struct{}

// Start always fails.
func (NoopTransport) Start(context.Context) (<-chan driven.AuthorizationCallback, error) {
	return nil, ErrInteractiveDisabled
}

// RedirectPath returns the default callback path.
func (NoopTransport) RedirectPath() string { return DefaultPath }

// Stop does nothing.
func (NoopTransport) Stop(context.Context) error { return nil }
