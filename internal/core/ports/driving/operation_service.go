package driving

import (
	"context"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

// BatchOptions control how a batch of input items is processed.
type BatchOptions struct {
	// Concurrency bounds the number of in-flight items (default 1).
	Concurrency int
	// ContinueOnFail captures per-item failures as {error: message} results
	// instead of aborting the batch.
	ContinueOnFail bool
}

// OperationService executes NetSuite operations over input items.
type OperationService interface {
	// Execute runs one operation per input and returns the output results
	// grouped by input index, preserving input order.
	Execute(ctx context.Context, inputs []domain.OperationParams, opts BatchOptions) ([][]domain.Result, error)

	// Run executes a single operation.
	Run(ctx context.Context, params domain.OperationParams, continueOnFail bool) ([]domain.Result, error)
}

// AuthService manages OAuth 2.0 tokens for the active profile.
type AuthService interface {
	// Login runs the interactive authorization code flow.
	Login(ctx context.Context) (*domain.OAuthToken, error)

	// LoginClientCredentials obtains a token with the machine-to-machine grant.
	LoginClientCredentials(ctx context.Context) (*domain.OAuthToken, error)

	// Refresh exchanges the stored refresh token.
	Refresh(ctx context.Context) (*domain.OAuthToken, error)

	// Status returns the stored token, or domain.ErrNotFound.
	Status(ctx context.Context) (*domain.OAuthToken, error)

	// Logout removes the stored token.
	Logout(ctx context.Context) error
}

// OperationRegistry describes the operations the connector supports.
type OperationRegistry interface {
	// List returns every operation in display order.
	List() []domain.OperationType

	// Get returns an operation by name.
	Get(op domain.Operation) (*domain.OperationType, error)

	// ValidateParams checks the parameters an operation requires.
	ValidateParams(params domain.OperationParams) error
}
