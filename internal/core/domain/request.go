package domain

import (
	"net/http"
	"net/url"
)

// RequestType selects which NetSuite REST service a request targets.
type RequestType string

const (
	// RequestRecord targets /services/rest/record/<version>.
	RequestRecord RequestType = "record"
	// RequestSuiteQL targets /services/rest/query/<version>/suiteql.
	RequestSuiteQL RequestType = "suiteql"
	// RequestWorkbook targets dataset and workbook endpoints; the path is relative to /services/rest.
	RequestWorkbook RequestType = "workbook"
	// RequestRaw sends the path as given, relative to /services/rest.
	RequestRaw RequestType = "raw"
)

// DefaultAPIVersion is the REST API version used when none is given.
const DefaultAPIVersion = "v1"

// Request describes a single HTTP call against the NetSuite REST API.
// One Request is built per call; NextURL is only set mid-pagination.
type Request struct {
	Method  string
	Type    RequestType
	Version string
	Path    string
	Query   url.Values
	Header  http.Header
	// Body is marshalled as JSON when non-nil.
	Body any
	// NextURL, when set, is used verbatim instead of deriving the URL from Path.
	NextURL string
}

// Clone returns a copy of the request that can be mutated independently.
func (r *Request) Clone() *Request {
	c := *r
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = append([]string(nil), v...)
		}
	}
	if r.Header != nil {
		c.Header = r.Header.Clone()
	}
	return &c
}

// APIVersion returns the version or DefaultAPIVersion.
func (r *Request) APIVersion() string {
	if r.Version == "" {
		return DefaultAPIVersion
	}
	return r.Version
}
