package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driving"
)

// Ensure OperationService implements the interface.
var _ driving.OperationService = (*OperationService)(nil)

// OperationService runs operations for one profile's credentials.
// A service instance corresponds to one execution: every item shares the
// same connector and ExecutionContext.
type OperationService struct {
	factory  driven.ConnectorFactory
	creds    domain.Credentials
	registry driving.OperationRegistry
	logger   *zap.Logger
	ec       *domain.ExecutionContext

	mu        sync.Mutex
	connector driven.Connector
}

// NewOperationService creates an operation service.
func NewOperationService(
	factory driven.ConnectorFactory,
	creds domain.Credentials,
	registry driving.OperationRegistry,
	logger *zap.Logger,
) *OperationService {
	if registry == nil {
		registry = NewOperationRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationService{
		factory:  factory,
		creds:    creds,
		registry: registry,
		logger:   logger,
		ec:       domain.NewExecutionContext(),
	}
}

// ExecutionContext returns the state shared by all items of this execution.
func (s *OperationService) ExecutionContext() *domain.ExecutionContext {
	return s.ec
}

func (s *OperationService) getConnector() (driven.Connector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connector != nil {
		return s.connector, nil
	}
	if s.factory == nil {
		return nil, fmt.Errorf("connector factory not available")
	}
	c, err := s.factory.Create(s.creds)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	s.connector = c
	return c, nil
}

// Run executes a single operation.
func (s *OperationService) Run(
	ctx context.Context,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	connector, err := s.getConnector()
	if err != nil {
		return nil, err
	}
	return connector.Run(ctx, s.ec, params, continueOnFail)
}

// Execute runs one operation per input with bounded concurrency and returns
// the results grouped by input index.
//
// Without ContinueOnFail every input is validated before the first request
// is sent, and the first failure aborts the batch. With ContinueOnFail a
// failing input yields a single {error: message} row.
func (s *OperationService) Execute(
	ctx context.Context,
	inputs []domain.OperationParams,
	opts driving.BatchOptions,
) ([][]domain.Result, error) {
	if !opts.ContinueOnFail {
		for i, params := range inputs {
			if err := s.registry.ValidateParams(params); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
	}

	connector, err := s.getConnector()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("executing batch",
		zap.Int("items", len(inputs)),
		zap.Int("concurrency", opts.Concurrency),
		zap.Bool("continue_on_fail", opts.ContinueOnFail))

	outcomes, err := FanOut(ctx, opts.Concurrency, len(inputs), opts.ContinueOnFail,
		func(ctx context.Context, i int) ([]domain.Result, error) {
			return connector.Run(ctx, s.ec, inputs[i], opts.ContinueOnFail)
		})
	if err != nil {
		return nil, err
	}

	results := make([][]domain.Result, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			s.logger.Warn("item failed", zap.Int("item", i), zap.Error(o.Err))
			results[i] = []domain.Result{{JSON: domain.Item{"error": o.Err.Error()}}}
			continue
		}
		results[i] = o.Value
	}
	return results, nil
}
