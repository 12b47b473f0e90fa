package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

func TestDecodeInputs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []domain.OperationParams
		wantErr bool
	}{
		{name: "empty", input: "  \n", want: nil},
		{
			name:  "array",
			input: ` [{"operation":"getRecord","recordType":"customer","internalId":"1"},{"operation":"runSuiteQL","query":"SELECT 1"}]`,
			want: []domain.OperationParams{
				{Operation: domain.OpGetRecord, RecordType: "customer", InternalID: "1"},
				{Operation: domain.OpRunSuiteQL, Query: "SELECT 1"},
			},
		},
		{
			name:  "json lines",
			input: "{\"operation\":\"removeRecord\",\"recordType\":\"customer\",\"internalId\":\"1\"}\n\n{\"recordType\":\"customer\",\"internalId\":\"2\"}\n",
			want: []domain.OperationParams{
				{Operation: domain.OpRemoveRecord, RecordType: "customer", InternalID: "1"},
				{RecordType: "customer", InternalID: "2"},
			},
		},
		{name: "limit and body", input: `{"operation":"insertRecord","recordType":"note","body":{"title":"x"},"limit":3}`,
			want: []domain.OperationParams{{
				Operation: domain.OpInsertRecord, RecordType: "note", Body: domain.Item{"title": "x"}, Limit: 3,
			}}},
		{name: "broken line", input: "{\"operation\":\"getRecord\"}\n{oops", wantErr: true},
		{name: "broken array", input: "[{]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeInputs(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunCommand(t *testing.T) {
	t.Run("stdin with default operation", func(t *testing.T) {
		ops := &mockOperationService{}
		restore := setupTestServices(ops, nil)
		defer restore()

		stdin := "{\"recordType\":\"customer\",\"internalId\":\"1\"}\n{\"operation\":\"removeRecord\",\"recordType\":\"customer\",\"internalId\":\"2\"}\n"
		stdout, _, err := executeCommand(t, stdin, "run", "--operation", "getRecord", "--continue-on-fail", "-c", "3")
		require.NoError(t, err)

		require.Len(t, ops.inputs, 2)
		assert.Equal(t, domain.OpGetRecord, ops.inputs[0].Operation)
		assert.Equal(t, domain.OpRemoveRecord, ops.inputs[1].Operation)
		assert.True(t, ops.opts.ContinueOnFail)
		assert.Equal(t, 3, ops.opts.Concurrency)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		assert.Equal(t, []string{
			`{"json":{"operation":"getRecord"}}`,
			`{"json":{"operation":"removeRecord"}}`,
		}, lines)
	})

	t.Run("input file", func(t *testing.T) {
		ops := &mockOperationService{}
		restore := setupTestServices(ops, nil)
		defer restore()

		path := filepath.Join(t.TempDir(), "items.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"operation":"runSuiteQL","query":"SELECT 1"}]`), 0o600))

		_, _, err := executeCommand(t, "", "run", "--input", path)
		require.NoError(t, err)
		require.Len(t, ops.inputs, 1)
		assert.Equal(t, "SELECT 1", ops.inputs[0].Query)
	})

	t.Run("item without operation", func(t *testing.T) {
		ops := &mockOperationService{}
		restore := setupTestServices(ops, nil)
		defer restore()

		_, _, err := executeCommand(t, `{"recordType":"customer"}`, "run")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Nil(t, ops.inputs)
	})

	t.Run("captured errors are written in order", func(t *testing.T) {
		ops := &mockOperationService{results: [][]domain.Result{
			{{JSON: domain.Item{"id": "1"}}},
			{{JSON: domain.Item{"error": "Record not found"}}},
			{{JSON: domain.Item{"id": "3"}}, {JSON: domain.Item{"id": "4"}}},
		}}
		restore := setupTestServices(ops, nil)
		defer restore()

		stdout, _, err := executeCommand(t, `[{"operation":"getRecord"},{"operation":"getRecord"},{"operation":"listRecords"}]`,
			"run", "-o", "json")
		require.NoError(t, err)
		assert.JSONEq(t,
			`[{"json":{"id":"1"}},{"json":{"error":"Record not found"}},{"json":{"id":"3"}},{"json":{"id":"4"}}]`,
			stdout)
	})

	t.Run("missing input file", func(t *testing.T) {
		restore := setupTestServices(&mockOperationService{}, nil)
		defer restore()

		_, _, err := executeCommand(t, "", "run", "--input", filepath.Join(t.TempDir(), "none.jsonl"))
		assert.Error(t, err)
	})
}
