package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driving"
)

// Ensure OperationRegistry implements the interface.
var _ driving.OperationRegistry = (*OperationRegistry)(nil)

// OperationRegistry provides information about the supported operations.
type OperationRegistry struct {
	operations map[domain.Operation]domain.OperationType
}

// NewOperationRegistry creates a registry with the built-in operations.
func NewOperationRegistry() *OperationRegistry {
	r := &OperationRegistry{operations: make(map[domain.Operation]domain.OperationType)}
	r.registerBuiltinOperations()
	return r
}

func (r *OperationRegistry) registerBuiltinOperations() {
	recordType := domain.ParamKey{Key: "recordType", Description: "Record type, e.g. customer or salesOrder", Required: true}
	internalID := domain.ParamKey{Key: "internalId", Description: "Record internal id", Required: true}
	fields := domain.ParamKey{Key: "fields", Description: "Comma-separated fields to return"}
	body := domain.ParamKey{Key: "body", Description: "Record body as a JSON object"}
	paging := []domain.ParamKey{
		{Key: "returnAll", Description: "Follow next links until hasMore is false"},
		{Key: "limit", Description: "Maximum number of rows to return"},
		{Key: "offset", Description: "Starting offset of the first page"},
	}

	r.operations[domain.OpListRecords] = domain.OperationType{
		ID:          domain.OpListRecords,
		Name:        "List Records",
		Description: "List records of a type, optionally filtered with a q expression",
		Method:      "GET",
		Paginated:   true,
		Params: append([]domain.ParamKey{
			recordType,
			{Key: "query", Description: "Record filter, sent as q"},
			fields,
		}, paging...),
	}
	r.operations[domain.OpGetRecord] = domain.OperationType{
		ID:          domain.OpGetRecord,
		Name:        "Get Record",
		Description: "Fetch one record by internal id",
		Method:      "GET",
		Params: []domain.ParamKey{
			recordType,
			internalID,
			{Key: "expandSubResources", Description: "Inline sublists and subrecords"},
			{Key: "simpleEnumFormat", Description: "Return enumerations as plain values"},
			fields,
		},
	}
	r.operations[domain.OpInsertRecord] = domain.OperationType{
		ID:          domain.OpInsertRecord,
		Name:        "Insert Record",
		Description: "Create a record; the new id is read from the Location header",
		Method:      "POST",
		Params:      []domain.ParamKey{recordType, body},
	}
	r.operations[domain.OpUpdateRecord] = domain.OperationType{
		ID:          domain.OpUpdateRecord,
		Name:        "Update Record",
		Description: "Patch a record by internal id",
		Method:      "PATCH",
		Params: []domain.ParamKey{
			recordType,
			internalID,
			body,
			{Key: "replaceSelectedFields", Description: "Replace only the named sublists"},
			{Key: "replace", Description: "Sublists to replace"},
		},
	}
	r.operations[domain.OpUpsertRecord] = domain.OperationType{
		ID:          domain.OpUpsertRecord,
		Name:        "Upsert Record",
		Description: "Create or replace a record by external id",
		Method:      "PUT",
		Params: []domain.ParamKey{
			recordType,
			{Key: "externalId", Description: "External id, sent as eid:<id>", Required: true},
			body,
		},
	}
	r.operations[domain.OpRemoveRecord] = domain.OperationType{
		ID:          domain.OpRemoveRecord,
		Name:        "Remove Record",
		Description: "Delete a record by internal id",
		Method:      "DELETE",
		Params:      []domain.ParamKey{recordType, internalID},
	}
	r.operations[domain.OpRunSuiteQL] = domain.OperationType{
		ID:          domain.OpRunSuiteQL,
		Name:        "Run SuiteQL",
		Description: "Run a SuiteQL query",
		Method:      "POST",
		Paginated:   true,
		Params: append([]domain.ParamKey{
			{Key: "query", Description: "SuiteQL statement", Required: true},
		}, paging...),
	}
	r.operations[domain.OpRawRequest] = domain.OperationType{
		ID:          domain.OpRawRequest,
		Name:        "Raw Request",
		Description: "Send a request to any REST path",
		Params: []domain.ParamKey{
			{Key: "path", Description: "Path relative to the service root, or an absolute URL", Required: true},
			{Key: "requestType", Description: "record, suiteql, workbook or raw"},
			{Key: "method", Description: "HTTP method (default GET)"},
			body,
			{Key: "fullResponse", Description: "Emit statusCode, headers and body"},
		},
	}
}

// List returns all operations in display order.
func (r *OperationRegistry) List() []domain.OperationType {
	result := make([]domain.OperationType, 0, len(domain.Operations))
	for _, op := range domain.Operations {
		if t, ok := r.operations[op]; ok {
			result = append(result, t)
		}
	}
	return result
}

// Get returns an operation by name.
func (r *OperationRegistry) Get(op domain.Operation) (*domain.OperationType, error) {
	t, ok := r.operations[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperation, op)
	}
	return &t, nil
}

// ValidateParams checks that every required parameter is present.
func (r *OperationRegistry) ValidateParams(params domain.OperationParams) error {
	t, err := r.Get(params.Operation)
	if err != nil {
		return err
	}

	var missing []string
	for _, p := range t.Params {
		if p.Required && strings.TrimSpace(paramValue(params, p.Key)) == "" {
			missing = append(missing, p.Key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", domain.ErrInvalidInput, params.Operation, strings.Join(missing, ", "))
	}
	return nil
}

// paramValue returns the string value of a required-capable parameter.
func paramValue(params domain.OperationParams, key string) string {
	switch key {
	case "recordType":
		return params.RecordType
	case "internalId":
		return params.InternalID
	case "externalId":
		return params.ExternalID
	case "query":
		return params.Query
	case "path":
		return params.Path
	default:
		return ""
	}
}
