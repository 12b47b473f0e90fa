// Package netsuite provides a connector for the NetSuite SuiteTalk REST API.
//
// This package provides:
//   - OAuth 1.0a token-based authentication (HMAC-SHA256 request signing)
//   - OAuth 2.0 authorization code, refresh and client credentials grants
//   - A request executor that issues exactly one HTTP call per request
//   - A response normaliser that turns envelopes into output items or errors
//   - A paginator that follows hasMore/links.next until the limit is reached
//   - Rate limiting for outgoing requests
//
// # Endpoints
//
// Every account has its own REST host:
//
//	https://<account>.suitetalk.api.netsuite.com/services/rest/record/v1/<recordType>
//	https://<account>.suitetalk.api.netsuite.com/services/rest/query/v1/suiteql
//
// Sandbox account ids use an underscore (1234567_SB1) in the realm and a
// dash (1234567-sb1) in the host name.
//
// # Pagination
//
// Collections return {items, hasMore, offset, count, totalResults, links}.
// Only hasMore decides whether another page is fetched; totalResults is advisory.
//
// # Rate Limits
//
// NetSuite enforces per-account concurrency governance and answers 429 when
// it is exceeded. Requests are not retried; a 429 only delays later requests.
package netsuite
