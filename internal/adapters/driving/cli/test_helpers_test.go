package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driving"
)

// mockOperationService records the batches it executes.
type mockOperationService struct {
	inputs  []domain.OperationParams
	opts    driving.BatchOptions
	results [][]domain.Result
	err     error
}

func (m *mockOperationService) Execute(
	_ context.Context, inputs []domain.OperationParams, opts driving.BatchOptions,
) ([][]domain.Result, error) {
	m.inputs = inputs
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.results != nil {
		return m.results, nil
	}
	out := make([][]domain.Result, len(inputs))
	for i, p := range inputs {
		out[i] = []domain.Result{{JSON: domain.Item{"operation": string(p.Operation)}}}
	}
	return out, nil
}

func (m *mockOperationService) Run(
	ctx context.Context, params domain.OperationParams, continueOnFail bool,
) ([]domain.Result, error) {
	res, err := m.Execute(ctx, []domain.OperationParams{params}, driving.BatchOptions{ContinueOnFail: continueOnFail})
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// mockAuthService returns a canned token and records calls.
type mockAuthService struct {
	token *domain.OAuthToken
	err   error
	calls []string
}

func (m *mockAuthService) Login(context.Context) (*domain.OAuthToken, error) {
	m.calls = append(m.calls, "login")
	return m.token, m.err
}

func (m *mockAuthService) LoginClientCredentials(context.Context) (*domain.OAuthToken, error) {
	m.calls = append(m.calls, "client-credentials")
	return m.token, m.err
}

func (m *mockAuthService) Refresh(context.Context) (*domain.OAuthToken, error) {
	m.calls = append(m.calls, "refresh")
	return m.token, m.err
}

func (m *mockAuthService) Status(context.Context) (*domain.OAuthToken, error) {
	m.calls = append(m.calls, "status")
	if m.token == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.token, m.err
}

func (m *mockAuthService) Logout(context.Context) error {
	m.calls = append(m.calls, "logout")
	return m.err
}

// mockOperationRegistry lists one operation.
type mockOperationRegistry struct{}

func (mockOperationRegistry) List() []domain.OperationType {
	return []domain.OperationType{{
		ID:          domain.OpGetRecord,
		Name:        "Get Record",
		Description: "Fetch one record by internal id",
		Method:      "GET",
		Params:      []domain.ParamKey{{Key: "recordType", Description: "Record type", Required: true}},
	}}
}

func (m mockOperationRegistry) Get(op domain.Operation) (*domain.OperationType, error) {
	for _, t := range m.List() {
		if t.ID == op {
			return &t, nil
		}
	}
	return nil, domain.ErrUnsupportedOperation
}

func (mockOperationRegistry) ValidateParams(domain.OperationParams) error {
	return nil
}

// setupTestServices injects mock services and returns a cleanup func.
func setupTestServices(ops *mockOperationService, auth *mockAuthService) func() {
	oldActive := active
	oldBootstrap := bootstrap
	s := &Services{Profile: "test", Concurrency: 2}
	if ops != nil {
		s.Operations = ops
	}
	if auth != nil {
		s.Auth = auth
	}
	active = s
	return func() {
		active = oldActive
		bootstrap = oldBootstrap
	}
}

// resetFlags restores every flag to its default between test runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
