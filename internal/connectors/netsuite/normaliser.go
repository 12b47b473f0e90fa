package netsuite

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
)

// NetSuite response headers carrying operation metadata.
const (
	headerPropertyValidation = "X-NetSuite-PropertyValidation"
	headerOperationID        = "X-N-OperationId"
	headerJobID              = "X-NetSuite-JobId"
	headerLocation           = "Location"
	headerWWWAuthenticate    = "WWW-Authenticate"
)

var authParamPattern = regexp.MustCompile(`(\w+)="([^"]*)"`)

// Normaliser turns a response envelope into an output item or an error.
// Handle is a pure function of the envelope and the policy flag.
type Normaliser struct {
	logger *zap.Logger
}

// NewNormaliser creates a normaliser.
func NewNormaliser(logger *zap.Logger) *Normaliser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normaliser{logger: logger}
}

// Handle maps a 2xx/3xx response to {json: body} and anything else to an
// error, or to {json: {error: message}} when continueOnFail is set.
func (n *Normaliser) Handle(
	ec *domain.ExecutionContext,
	resp *domain.Response,
	continueOnFail bool,
) (domain.Result, error) {
	ec.Set("statusCode", resp.StatusCode)

	if resp.IsSuccess() {
		item, err := domain.DecodeItem(resp.Body)
		if err != nil {
			return domain.Result{}, fmt.Errorf("decode response: %w", err)
		}
		if method := requestMethod(resp); method != http.MethodGet && method != http.MethodHead {
			annotate(item, resp)
		}
		return domain.Result{JSON: item}, nil
	}

	body, err := domain.ParseBody(resp.StatusCode, resp.Body)
	if err != nil {
		body = domain.Body{Kind: domain.BodyText, Text: string(resp.Body)}
	}

	message := errorMessage(resp, body)
	if IsUnauthorised(resp.StatusCode) {
		message = authDiagnostic(message, resp.Header.Get(headerWWWAuthenticate))
	}

	n.logger.Debug("netsuite request failed",
		zap.Int("status", resp.StatusCode),
		zap.Bool("retryable", IsRetryable(resp.StatusCode)),
		zap.String("message", message))

	if continueOnFail {
		return domain.Result{JSON: domain.Item{"error": message}}, nil
	}
	return domain.Result{}, &domain.APIError{
		Kind:       domain.KindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       body.AsItem(),
		Cause:      StatusError(resp.StatusCode),
	}
}

func requestMethod(resp *domain.Response) string {
	if resp.Request == nil || resp.Request.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(resp.Request.Method)
}

// annotate adds the metadata NetSuite returns in headers for write operations.
func annotate(item domain.Item, resp *domain.Response) {
	if v := resp.Header.Get(headerPropertyValidation); v != "" {
		parts := strings.Split(v, ",")
		validation := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				validation = append(validation, p)
			}
		}
		item["propertyValidation"] = validation
	}
	if v := resp.Header.Get(headerOperationID); v != "" {
		item["operationId"] = v
	}
	if v := resp.Header.Get(headerJobID); v != "" {
		item["jobId"] = v
	}
	if loc := resp.Header.Get(headerLocation); loc != "" {
		item["links"] = []any{map[string]any{"rel": "self", "href": loc}}
		item["id"] = lastSegment(loc)
	}
	item["success"] = resp.StatusCode == http.StatusNoContent
}

func lastSegment(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil {
		p = u.Path
	}
	return path.Base(strings.TrimRight(p, "/"))
}

// errorMessage prefers title, message, o:errorCode and then the status text.
// The first error detail overrides all of them.
func errorMessage(resp *domain.Response, body domain.Body) string {
	var message string
	switch body.Kind {
	case domain.BodyError:
		message = firstNonEmpty(body.Error.Title, body.Error.Message, body.Error.ErrorCode)
		if len(body.Error.ErrorDetails) > 0 && body.Error.ErrorDetails[0].Detail != "" {
			return body.Error.ErrorDetails[0].Detail
		}
	case domain.BodyRecord:
		message = firstNonEmpty(stringField(body.Record, "title"),
			stringField(body.Record, "message"), stringField(body.Record, "o:errorCode"))
	}
	if message != "" {
		return message
	}
	if resp.StatusText != "" {
		return resp.StatusText
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}

// authDiagnostic expands a 401 into the usual token-based authentication
// misconfigurations, keeping the original text.
func authDiagnostic(original, wwwAuthenticate string) string {
	var b strings.Builder
	b.WriteString("Authentication failed (401): ")
	b.WriteString(original)

	params := make(map[string]string)
	for _, m := range authParamPattern.FindAllStringSubmatch(wwwAuthenticate, -1) {
		params[m[1]] = m[2]
	}
	if e := params["error"]; e != "" {
		b.WriteString("\nerror: ")
		b.WriteString(e)
	}
	if d := params["error_description"]; d != "" {
		b.WriteString("\nerror_description: ")
		b.WriteString(d)
	}

	b.WriteString("\nCommon causes:")
	b.WriteString("\n  1. Hostname format: use <account>.suitetalk.api.netsuite.com without a scheme or path.")
	b.WriteString("\n  2. Account ID: sandbox accounts use the 1234567_SB1 form, not 1234567-sb1.")
	b.WriteString("\n  3. Token permissions: the token's role needs REST Web Services and Log in using Access Tokens.")
	b.WriteString("\n  4. Integration record: token-based authentication must be enabled on the integration record.")
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringField(item domain.Item, key string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return ""
}
