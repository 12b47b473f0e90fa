package domain

// Item is one workflow data row.
type Item = map[string]any

// Result is one output record, rendered as {"json": ...}.
type Result struct {
	JSON Item `json:"json"`
}

// Operation names an action the connector can perform.
type Operation string

// Supported operations.
const (
	OpListRecords  Operation = "listRecords"
	OpGetRecord    Operation = "getRecord"
	OpInsertRecord Operation = "insertRecord"
	OpUpdateRecord Operation = "updateRecord"
	OpUpsertRecord Operation = "upsertRecord"
	OpRemoveRecord Operation = "removeRecord"
	OpRunSuiteQL   Operation = "runSuiteQL"
	OpRawRequest   Operation = "rawRequest"
)

// Operations lists every supported operation in display order.
var Operations = []Operation{
	OpListRecords, OpGetRecord, OpInsertRecord, OpUpdateRecord,
	OpUpsertRecord, OpRemoveRecord, OpRunSuiteQL, OpRawRequest,
}

// Valid reports whether the operation is supported.
func (o Operation) Valid() bool {
	for _, op := range Operations {
		if op == o {
			return true
		}
	}
	return false
}

// OperationParams are the per-item parameters for an operation.
type OperationParams struct {
	Operation  Operation `json:"operation"`
	RecordType string    `json:"recordType,omitempty"`
	InternalID string    `json:"internalId,omitempty"`
	ExternalID string    `json:"externalId,omitempty"`
	Version    string    `json:"version,omitempty"`

	// Query is the record-listing filter (q=) or the SuiteQL statement.
	Query string `json:"query,omitempty"`

	Fields                string `json:"fields,omitempty"`
	ExpandSubResources    bool   `json:"expandSubResources,omitempty"`
	SimpleEnumFormat      bool   `json:"simpleEnumFormat,omitempty"`
	ReplaceSelectedFields bool   `json:"replaceSelectedFields,omitempty"`
	Replace               string `json:"replace,omitempty"`

	// Raw request parameters.
	RequestType RequestType `json:"requestType,omitempty"`
	Method      string      `json:"method,omitempty"`
	Path        string      `json:"path,omitempty"`

	Body Item `json:"body,omitempty"`

	ReturnAll    bool `json:"returnAll,omitempty"`
	Limit        int  `json:"limit,omitempty"`
	Offset       int  `json:"offset,omitempty"`
	FullResponse bool `json:"fullResponse,omitempty"`
}
