package driven

import (
	"context"
	"net/http"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

// Authenticator attaches credentials to an outgoing request.
// Implementations compute a fresh signature or bearer header per call.
type Authenticator interface {
	// Authenticate sets the Authorization header (and any other
	// credential-specific headers) on req.
	Authenticate(ctx context.Context, req *http.Request) error
}

// TokenStore persists the OAuth 2.0 token pair between executions.
type TokenStore interface {
	// Load returns the stored token for a profile.
	// Returns domain.ErrNotFound if no token has been stored.
	Load(ctx context.Context, profile string) (*domain.OAuthToken, error)

	// Save stores or replaces the token for a profile.
	Save(ctx context.Context, profile string, token *domain.OAuthToken) error

	// Delete removes the token for a profile. Deleting a missing token is not an error.
	Delete(ctx context.Context, profile string) error
}

// AuthorizationCallback is the outcome of the interactive redirect.
type AuthorizationCallback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// AuthorizationTransport receives the authorization code redirect for the
// interactive OAuth 2.0 flow.
type AuthorizationTransport interface {
	// Start begins listening and returns a channel that receives exactly one callback.
	Start(ctx context.Context) (<-chan AuthorizationCallback, error)

	// RedirectPath is the path the provider should redirect to (e.g. /oauth/callback).
	RedirectPath() string

	// Stop releases any listener. Safe to call more than once.
	Stop(ctx context.Context) error
}
