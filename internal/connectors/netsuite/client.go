package netsuite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.Connector = (*Client)(nil)

// Client runs connector operations on top of an executor.
type Client struct {
	exec       RequestExecutor
	normaliser *Normaliser
	paginator  *Paginator
	logger     *zap.Logger
}

// NewClient creates a client.
func NewClient(exec RequestExecutor, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	normaliser := NewNormaliser(logger)
	return &Client{
		exec:       exec,
		normaliser: normaliser,
		paginator:  NewPaginator(exec, normaliser, logger),
		logger:     logger,
	}
}

// Run executes one operation and returns its output rows.
// With continueOnFail, API and validation failures become a single
// {error: message} row; transport failures are always returned.
func (c *Client) Run(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	results, err := c.run(ctx, ec, params, continueOnFail)
	if err == nil {
		return results, nil
	}

	var transportErr *domain.TransportError
	if continueOnFail && !errors.As(err, &transportErr) && ctx.Err() == nil {
		return []domain.Result{{JSON: domain.Item{"error": err.Error()}}}, nil
	}
	return nil, err
}

func (c *Client) run(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	switch params.Operation {
	case domain.OpListRecords:
		return c.listRecords(ctx, ec, params)
	case domain.OpGetRecord:
		return c.getRecord(ctx, ec, params, continueOnFail)
	case domain.OpInsertRecord:
		return c.insertRecord(ctx, ec, params, continueOnFail)
	case domain.OpUpdateRecord:
		return c.updateRecord(ctx, ec, params, continueOnFail)
	case domain.OpUpsertRecord:
		return c.upsertRecord(ctx, ec, params, continueOnFail)
	case domain.OpRemoveRecord:
		return c.removeRecord(ctx, ec, params, continueOnFail)
	case domain.OpRunSuiteQL:
		return c.runSuiteQL(ctx, ec, params)
	case domain.OpRawRequest:
		return c.rawRequest(ctx, ec, params, continueOnFail)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperation, params.Operation)
	}
}

func (c *Client) listRecords(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
) ([]domain.Result, error) {
	if err := requireParam("recordType", params.RecordType); err != nil {
		return nil, err
	}

	query := url.Values{}
	if params.Query != "" {
		query.Set("q", params.Query)
	}
	if params.Fields != "" {
		query.Set("fields", params.Fields)
	}

	items, err := c.paginator.Collect(ctx, ec, &domain.Request{
		Method:  http.MethodGet,
		Type:    domain.RequestRecord,
		Version: params.Version,
		Path:    params.RecordType,
		Query:   query,
	}, PageOptions{
		ReturnAll:       params.ReturnAll,
		Limit:           params.Limit,
		Offset:          params.Offset,
		DefaultPageSize: DefaultRecordPageSize,
	})
	if err != nil {
		return nil, err
	}
	return toResults(items), nil
}

func (c *Client) runSuiteQL(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
) ([]domain.Result, error) {
	if err := requireParam("query", params.Query); err != nil {
		return nil, err
	}

	items, err := c.paginator.Collect(ctx, ec, &domain.Request{
		Method:  http.MethodPost,
		Type:    domain.RequestSuiteQL,
		Version: params.Version,
		Body:    domain.Item{"q": params.Query},
	}, PageOptions{
		ReturnAll:       params.ReturnAll,
		Limit:           params.Limit,
		Offset:          params.Offset,
		DefaultPageSize: DefaultSuiteQLPageSize,
	})
	if err != nil {
		return nil, err
	}
	return toResults(items), nil
}

func (c *Client) getRecord(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	if err := requireParam("recordType", params.RecordType); err != nil {
		return nil, err
	}
	if err := requireParam("internalId", params.InternalID); err != nil {
		return nil, err
	}

	query := url.Values{}
	if params.ExpandSubResources {
		query.Set("expandSubResources", "true")
	}
	if params.SimpleEnumFormat {
		query.Set("simpleEnumFormat", "true")
	}
	if params.Fields != "" {
		query.Set("fields", params.Fields)
	}

	return c.single(ctx, ec, params, continueOnFail, &domain.Request{
		Method:  http.MethodGet,
		Type:    domain.RequestRecord,
		Version: params.Version,
		Path:    recordPath(params.RecordType, params.InternalID),
		Query:   query,
	})
}

func (c *Client) insertRecord(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	if err := requireParam("recordType", params.RecordType); err != nil {
		return nil, err
	}

	return c.single(ctx, ec, params, continueOnFail, &domain.Request{
		Method:  http.MethodPost,
		Type:    domain.RequestRecord,
		Version: params.Version,
		Path:    params.RecordType,
		Body:    bodyOrEmpty(params.Body),
	})
}

func (c *Client) updateRecord(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	if err := requireParam("recordType", params.RecordType); err != nil {
		return nil, err
	}
	if err := requireParam("internalId", params.InternalID); err != nil {
		return nil, err
	}

	return c.single(ctx, ec, params, continueOnFail, &domain.Request{
		Method:  http.MethodPatch,
		Type:    domain.RequestRecord,
		Version: params.Version,
		Path:    recordPath(params.RecordType, params.InternalID),
		Query:   writeQuery(params),
		Body:    bodyOrEmpty(params.Body),
	})
}

func (c *Client) upsertRecord(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	if err := requireParam("recordType", params.RecordType); err != nil {
		return nil, err
	}
	if err := requireParam("externalId", params.ExternalID); err != nil {
		return nil, err
	}

	return c.single(ctx, ec, params, continueOnFail, &domain.Request{
		Method:  http.MethodPut,
		Type:    domain.RequestRecord,
		Version: params.Version,
		Path:    recordPath(params.RecordType, "eid:"+params.ExternalID),
		Query:   writeQuery(params),
		Body:    bodyOrEmpty(params.Body),
	})
}

func (c *Client) removeRecord(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	if err := requireParam("recordType", params.RecordType); err != nil {
		return nil, err
	}
	if err := requireParam("internalId", params.InternalID); err != nil {
		return nil, err
	}

	return c.single(ctx, ec, params, continueOnFail, &domain.Request{
		Method:  http.MethodDelete,
		Type:    domain.RequestRecord,
		Version: params.Version,
		Path:    recordPath(params.RecordType, params.InternalID),
	})
}

func (c *Client) rawRequest(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
) ([]domain.Result, error) {
	if err := requireParam("path", params.Path); err != nil {
		return nil, err
	}

	requestType := params.RequestType
	if requestType == "" {
		requestType = domain.RequestRaw
	}
	method := strings.ToUpper(params.Method)
	if method == "" {
		method = http.MethodGet
	}

	req := &domain.Request{
		Method:  method,
		Type:    requestType,
		Version: params.Version,
		Path:    params.Path,
	}
	// An absolute path is treated as a full URL, e.g. a links.next href.
	if strings.HasPrefix(params.Path, "https://") || strings.HasPrefix(params.Path, "http://") {
		req.NextURL = params.Path
	}
	if requestType == domain.RequestSuiteQL && params.Query != "" {
		req.Body = domain.Item{"q": params.Query}
	}
	if params.Body != nil && method != http.MethodGet {
		req.Body = params.Body
	}

	return c.single(ctx, ec, params, continueOnFail, req)
}

// single performs one request and normalises its response.
func (c *Client) single(
	ctx context.Context,
	ec *domain.ExecutionContext,
	params domain.OperationParams,
	continueOnFail bool,
	req *domain.Request,
) ([]domain.Result, error) {
	resp, err := c.exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := c.normaliser.Handle(ec, resp, continueOnFail)
	if err != nil {
		return nil, err
	}

	if params.FullResponse && resp.IsSuccess() {
		result = domain.Result{JSON: domain.Item{
			"statusCode": resp.StatusCode,
			"headers":    flattenHeaders(resp.Header),
			"body":       result.JSON,
		}}
	}
	return []domain.Result{result}, nil
}

func requireParam(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	return nil
}

func recordPath(recordType, id string) string {
	return recordType + "/" + url.PathEscape(id)
}

func writeQuery(params domain.OperationParams) url.Values {
	query := url.Values{}
	if params.ReplaceSelectedFields {
		query.Set("replaceSelectedFields", strconv.FormatBool(true))
	}
	if params.Replace != "" {
		query.Set("replace", params.Replace)
	}
	return query
}

func bodyOrEmpty(body domain.Item) domain.Item {
	if body == nil {
		return domain.Item{}
	}
	return body
}

func toResults(items []domain.Item) []domain.Result {
	out := make([]domain.Result, len(items))
	for i, item := range items {
		out[i] = domain.Result{JSON: item}
	}
	return out
}

func flattenHeaders(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}
