package netsuite

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

func response(method string, status int, body string, header http.Header) *domain.Response {
	if header == nil {
		header = http.Header{}
	}
	return &domain.Response{
		StatusCode: status,
		StatusText: http.StatusText(status),
		Header:     header,
		Body:       []byte(body),
		Request:    &domain.Request{Method: method, Type: domain.RequestRecord},
	}
}

func TestNormaliser_CreatedWithLocation(t *testing.T) {
	n := NewNormaliser(nil)
	resp := response(http.MethodPost, http.StatusNoContent, "", http.Header{
		"Location": {"https://123.suitetalk.api.netsuite.com/services/rest/record/v1/customer/456"},
	})

	result, err := n.Handle(nil, resp, false)
	require.NoError(t, err)

	assert.Equal(t, "456", result.JSON["id"])
	assert.Equal(t, true, result.JSON["success"])
	assert.Equal(t, []any{map[string]any{
		"rel":  "self",
		"href": "https://123.suitetalk.api.netsuite.com/services/rest/record/v1/customer/456",
	}}, result.JSON["links"])
}

func TestNormaliser_GetPassesBodyThrough(t *testing.T) {
	n := NewNormaliser(nil)
	resp := response(http.MethodGet, http.StatusOK, `{"id":"42","companyName":"Acme"}`, nil)

	result, err := n.Handle(nil, resp, false)
	require.NoError(t, err)

	assert.Equal(t, domain.Item{"id": "42", "companyName": "Acme"}, result.JSON)
}

func TestNormaliser_SuccessBodyKeepsEveryKey(t *testing.T) {
	tests := []struct {
		name   string
		method string
		status int
		body   string
		want   domain.Item
	}{
		{
			name:   "get record with an items field",
			method: http.MethodGet,
			status: http.StatusOK,
			body:   `{"id":"7","companyName":"Acme","items":[{"sku":"A"}]}`,
			want: domain.Item{
				"id": "7", "companyName": "Acme",
				"items": []any{map[string]any{"sku": "A"}},
			},
		},
		{
			name:   "get record with error-like keys",
			method: http.MethodGet,
			status: http.StatusOK,
			body:   `{"id":"8","title":"Ms","o:errorDetails":[]}`,
			want:   domain.Item{"id": "8", "title": "Ms", "o:errorDetails": []any{}},
		},
		{
			name:   "post body with items and error details",
			method: http.MethodPost,
			status: http.StatusOK,
			body:   `{"items":[1],"o:errorDetails":[{"detail":"warn"}],"custom":"x"}`,
			want: domain.Item{
				"items":          []any{float64(1)},
				"o:errorDetails": []any{map[string]any{"detail": "warn"}},
				"custom":         "x",
				"success":        false,
			},
		},
		{
			name:   "array body",
			method: http.MethodGet,
			status: http.StatusOK,
			body:   `[{"id":"1"}]`,
			want:   domain.Item{"items": []any{map[string]any{"id": "1"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormaliser(nil)

			result, err := n.Handle(nil, response(tt.method, tt.status, tt.body, nil), false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.JSON)
		})
	}
}

func TestNormaliser_WriteAnnotations(t *testing.T) {
	n := NewNormaliser(nil)
	resp := response(http.MethodPatch, http.StatusOK, `{}`, http.Header{
		"X-Netsuite-Propertyvalidation": {"Unknown field 'foo', Unknown field 'bar'"},
		"X-N-Operationid":               {"op-1"},
		"X-Netsuite-Jobid":              {"job-9"},
	})

	result, err := n.Handle(nil, resp, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Unknown field 'foo'", "Unknown field 'bar'"}, result.JSON["propertyValidation"])
	assert.Equal(t, "op-1", result.JSON["operationId"])
	assert.Equal(t, "job-9", result.JSON["jobId"])
	assert.Equal(t, false, result.JSON["success"])
	assert.NotContains(t, result.JSON, "id")
}

func TestNormaliser_ErrorDetailOverrides(t *testing.T) {
	body := `{"title":"Bad Request","o:errorDetails":[{"detail":"X","o:errorCode":"INVALID_CONTENT"}]}`

	t.Run("continue on fail", func(t *testing.T) {
		n := NewNormaliser(nil)
		result, err := n.Handle(nil, response(http.MethodPost, http.StatusBadRequest, body, nil), true)
		require.NoError(t, err)
		assert.Equal(t, domain.Item{"error": "X"}, result.JSON)
	})

	t.Run("fail fast", func(t *testing.T) {
		n := NewNormaliser(nil)
		_, err := n.Handle(nil, response(http.MethodPost, http.StatusBadRequest, body, nil), false)
		require.Error(t, err)
		assert.Equal(t, "X", err.Error())

		var apiErr *domain.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, domain.KindValidation, apiErr.Kind)
		assert.Equal(t, "Bad Request", apiErr.Body["title"])
	})
}

func TestNormaliser_MessagePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "title first", status: 404, body: `{"title":"Not Found","message":"m","o:errorCode":"E"}`, want: "Not Found"},
		{name: "message second", status: 400, body: `{"message":"m","o:errorCode":"E"}`, want: "m"},
		{name: "error code third", status: 400, body: `{"o:errorCode":"E"}`, want: "E"},
		{name: "status text last", status: 500, body: ``, want: "Internal Server Error"},
		{name: "plain text body", status: 502, body: `upstream failure`, want: "Bad Gateway"},
		{name: "empty detail ignored", status: 400, body: `{"title":"T","o:errorDetails":[{"detail":""}]}`, want: "T"},
	}

	n := NewNormaliser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := n.Handle(nil, response(http.MethodGet, tt.status, tt.body, nil), true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.JSON["error"])
		})
	}
}

func TestNormaliser_UnauthorisedDiagnostic(t *testing.T) {
	n := NewNormaliser(nil)
	resp := response(http.MethodGet, http.StatusUnauthorized,
		`{"title":"Unauthorized","o:errorDetails":[{"detail":"Invalid login attempt."}]}`,
		http.Header{"Www-Authenticate": {`OAuth realm="1234567_SB1", error="token_rejected", error_description="Invalid login attempt."`}})

	_, err := n.Handle(nil, resp, false)
	require.Error(t, err)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, domain.KindAuth, apiErr.Kind)

	msg := apiErr.Message
	assert.True(t, strings.HasPrefix(msg, "Authentication failed (401): Invalid login attempt."))
	assert.Contains(t, msg, "error: token_rejected")
	assert.Contains(t, msg, "error_description: Invalid login attempt.")
	assert.Contains(t, msg, "Hostname format")
	assert.Contains(t, msg, "Account ID")
	assert.Contains(t, msg, "Token permissions")
	assert.Contains(t, msg, "Integration record")
}

func TestNormaliser_ErrorsMatchStatusSentinels(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"title":"Record not found"}`, sentinel: ErrNotFound},
		{name: "unauthorised", status: http.StatusUnauthorized, body: `{"title":"Invalid login attempt."}`, sentinel: ErrUnauthorised},
		{name: "forbidden", status: http.StatusForbidden, body: `{"title":"Forbidden"}`, sentinel: ErrForbidden},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "", sentinel: ErrRateLimited},
		{name: "validation", status: http.StatusBadRequest, body: `{"o:errorDetails":[{"detail":"bad field"}]}`, sentinel: ErrBadRequest},
		{name: "server", status: http.StatusBadGateway, body: "Bad Gateway", sentinel: ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormaliser(nil)

			_, err := n.Handle(nil, response(http.MethodGet, tt.status, tt.body, nil), false)
			require.Error(t, err)

			assert.ErrorIs(t, err, tt.sentinel)
			var apiErr *domain.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestNormaliser_Idempotent(t *testing.T) {
	n := NewNormaliser(nil)
	resp := response(http.MethodDelete, http.StatusNoContent, "", http.Header{
		"Location": {"/services/rest/record/v1/customer/7"},
	})

	first, err := n.Handle(nil, resp, false)
	require.NoError(t, err)
	second, err := n.Handle(nil, resp, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "7", first.JSON["id"])
}

func TestNormaliser_RecordsStatusInExecutionContext(t *testing.T) {
	n := NewNormaliser(nil)
	ec := domain.NewExecutionContext()

	_, err := n.Handle(ec, response(http.MethodGet, http.StatusOK, `{}`, nil), false)
	require.NoError(t, err)

	status, ok := ec.Get("statusCode")
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
}
