package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the uniform envelope produced for every HTTP call.
type Response struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
	Request    *Request
}

// IsSuccess reports whether the status code is in [200, 400).
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// Link is a HATEOAS link entry returned by NetSuite.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// BodyKind tags the shape of a parsed response body.
type BodyKind int

const (
	// BodyEmpty is a response without content (e.g. 204).
	BodyEmpty BodyKind = iota
	// BodyPaged is a collection with items/hasMore/links.
	BodyPaged
	// BodyRecord is a single record or any other JSON object.
	BodyRecord
	// BodyError is a NetSuite error envelope.
	BodyError
	// BodyText is a non-JSON payload.
	BodyText
)

// PagedBody is NetSuite's collection envelope.
type PagedBody struct {
	Items        []Item `json:"items"`
	HasMore      bool   `json:"hasMore"`
	Offset       int    `json:"offset"`
	Count        int    `json:"count"`
	TotalResults int    `json:"totalResults"`
	Links        []Link `json:"links"`
}

// NextLink returns the href of the rel=next link, or "".
func (p *PagedBody) NextLink() string {
	for _, l := range p.Links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}

// ErrorDetail is one entry of o:errorDetails.
type ErrorDetail struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"o:errorCode"`
}

// ErrorBody is NetSuite's error envelope.
type ErrorBody struct {
	Type         string        `json:"type"`
	Title        string        `json:"title"`
	Status       int           `json:"status"`
	Message      string        `json:"message"`
	ErrorCode    string        `json:"o:errorCode"`
	ErrorDetails []ErrorDetail `json:"o:errorDetails"`
}

// Body is a tagged union of the response shapes NetSuite returns.
// Exactly one of Paged, Record, Error or Text is set according to Kind.
// Raw holds any JSON object body exactly as sent, whatever its Kind.
type Body struct {
	Kind   BodyKind
	Paged  *PagedBody
	Record Item
	Error  *ErrorBody
	Text   string
	Raw    Item
}

// DecodeItem decodes a response body into an output item without
// reinterpreting it. Objects pass through with every key, arrays are
// wrapped as {items: [...]}, other payloads as {body: text}.
func DecodeItem(raw []byte) (Item, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Item{}, nil
	}
	switch trimmed[0] {
	case '{':
		var item Item
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		return item, nil
	case '[':
		var arr []any
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		return Item{"items": arr}, nil
	default:
		return Item{"body": string(raw)}, nil
	}
}

// ParseBody classifies and decodes a raw response body.
// A JSON object carrying "items" is a paged body; one carrying
// "o:errorDetails", or "title" on an error status, is an error body.
func ParseBody(statusCode int, raw []byte) (Body, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Body{Kind: BodyEmpty}, nil
	}
	if trimmed[0] != '{' {
		if trimmed[0] == '[' {
			var arr []any
			if err := json.Unmarshal(trimmed, &arr); err != nil {
				return Body{}, fmt.Errorf("decode body: %w", err)
			}
			return Body{Kind: BodyRecord, Record: Item{"items": arr}}, nil
		}
		return Body{Kind: BodyText, Text: string(raw)}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Body{}, fmt.Errorf("decode body: %w", err)
	}
	item, err := DecodeItem(trimmed)
	if err != nil {
		return Body{}, err
	}

	_, hasDetails := obj["o:errorDetails"]
	_, hasTitle := obj["title"]
	if hasDetails || (statusCode >= 400 && hasTitle) {
		var e ErrorBody
		if err := json.Unmarshal(trimmed, &e); err != nil {
			return Body{}, fmt.Errorf("decode error body: %w", err)
		}
		return Body{Kind: BodyError, Error: &e, Raw: item}, nil
	}

	if _, ok := obj["items"]; ok {
		var p PagedBody
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return Body{}, fmt.Errorf("decode paged body: %w", err)
		}
		if p.Items == nil {
			p.Items = []Item{}
		}
		return Body{Kind: BodyPaged, Paged: &p, Raw: item}, nil
	}

	return Body{Kind: BodyRecord, Record: item, Raw: item}, nil
}

// AsItem renders the body back to a generic JSON object. Object bodies
// come back with every key they were sent with.
func (b Body) AsItem() Item {
	if b.Raw != nil {
		out := make(Item, len(b.Raw))
		for k, v := range b.Raw {
			out[k] = v
		}
		return out
	}
	switch b.Kind {
	case BodyPaged:
		items := make([]any, len(b.Paged.Items))
		for i, it := range b.Paged.Items {
			items[i] = map[string]any(it)
		}
		links := make([]any, len(b.Paged.Links))
		for i, l := range b.Paged.Links {
			links[i] = map[string]any{"rel": l.Rel, "href": l.Href}
		}
		return Item{
			"items":        items,
			"hasMore":      b.Paged.HasMore,
			"offset":       b.Paged.Offset,
			"count":        b.Paged.Count,
			"totalResults": b.Paged.TotalResults,
			"links":        links,
		}
	case BodyRecord:
		out := make(Item, len(b.Record))
		for k, v := range b.Record {
			out[k] = v
		}
		return out
	case BodyError:
		out := Item{}
		if b.Error.Type != "" {
			out["type"] = b.Error.Type
		}
		if b.Error.Title != "" {
			out["title"] = b.Error.Title
		}
		if b.Error.Status != 0 {
			out["status"] = b.Error.Status
		}
		if b.Error.Message != "" {
			out["message"] = b.Error.Message
		}
		if b.Error.ErrorCode != "" {
			out["o:errorCode"] = b.Error.ErrorCode
		}
		if len(b.Error.ErrorDetails) > 0 {
			details := make([]any, len(b.Error.ErrorDetails))
			for i, d := range b.Error.ErrorDetails {
				details[i] = map[string]any{"detail": d.Detail, "o:errorCode": d.ErrorCode}
			}
			out["o:errorDetails"] = details
		}
		return out
	case BodyText:
		return Item{"body": b.Text}
	default:
		return Item{}
	}
}
