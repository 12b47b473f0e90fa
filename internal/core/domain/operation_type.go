package domain

// ParamKey describes one operation parameter.
type ParamKey struct {
	Key         string
	Description string
	Required    bool
}

// OperationType describes an operation for help output and input validation.
type OperationType struct {
	ID          Operation
	Name        string
	Description string
	// Method is the HTTP method the operation issues; empty when it varies.
	Method    string
	Paginated bool
	Params    []ParamKey
}
