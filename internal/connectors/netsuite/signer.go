package netsuite

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/suitetalk/internal/core/domain"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure Signer implements the interface.
var _ driven.Authenticator = (*Signer)(nil)

// OAuth 1.0a constants.
const (
	oauthSignatureMethod = "HMAC-SHA256"
	oauthVersion         = "1.0"
)

// Signer produces OAuth 1.0a token-based authentication headers.
// It holds the long-lived secrets and regenerates the nonce and timestamp
// on every refresh. It never performs I/O.
type Signer struct {
	creds domain.OAuth1Credentials
	now   func() time.Time
	nonce func(time.Time) string

	mu        sync.Mutex
	timestamp string
	nonceVal  string
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithClock overrides the clock used for oauth_timestamp.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// WithNonceSource overrides nonce generation.
func WithNonceSource(nonce func(time.Time) string) SignerOption {
	return func(s *Signer) { s.nonce = nonce }
}

// NewSigner creates a signer and generates its first nonce and timestamp.
func NewSigner(creds domain.OAuth1Credentials, opts ...SignerOption) *Signer {
	s := &Signer{
		creds: creds,
		now:   time.Now,
		nonce: randomNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.RefreshAuthParams()
	return s
}

// RefreshAuthParams regenerates the nonce and timestamp.
func (s *Signer) RefreshAuthParams() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
}

func (s *Signer) refreshLocked() {
	now := s.now()
	s.timestamp = strconv.FormatInt(now.Unix(), 10)
	s.nonceVal = s.nonce(now)
}

// Timestamp returns the current oauth_timestamp.
func (s *Signer) Timestamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timestamp
}

// GetAuthorizationHeaders returns the Authorization header for a request
// signed with the current nonce and timestamp.
func (s *Signer) GetAuthorizationHeaders(method, rawURL string) (map[string]string, error) {
	s.mu.Lock()
	timestamp, nonce := s.timestamp, s.nonceVal
	s.mu.Unlock()

	header, err := s.sign(method, rawURL, timestamp, nonce)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": header}, nil
}

// Authenticate refreshes the nonce and timestamp and signs req.
func (s *Signer) Authenticate(_ context.Context, req *http.Request) error {
	s.mu.Lock()
	s.refreshLocked()
	timestamp, nonce := s.timestamp, s.nonceVal
	s.mu.Unlock()

	header, err := s.sign(req.Method, req.URL.String(), timestamp, nonce)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", header)
	return nil
}

func (s *Signer) sign(method, rawURL, timestamp, nonce string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	params := [][2]string{
		{"oauth_consumer_key", s.creds.ConsumerKey},
		{"oauth_token", s.creds.TokenKey},
		{"oauth_signature_method", oauthSignatureMethod},
		{"oauth_timestamp", timestamp},
		{"oauth_nonce", nonce},
		{"oauth_version", oauthVersion},
	}

	base := signatureBaseString(method, u, params)
	key := percentEncode(s.creds.ConsumerSecret) + "&" + percentEncode(s.creds.TokenSecret)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	var b strings.Builder
	b.WriteString(`OAuth realm="`)
	b.WriteString(quoteEscaper.Replace(s.creds.AccountID))
	b.WriteString(`"`)
	for _, p := range params {
		fmt.Fprintf(&b, `, %s="%s"`, p[0], percentEncode(p[1]))
	}
	fmt.Fprintf(&b, `, oauth_signature="%s"`, percentEncode(signature))
	return b.String(), nil
}

// signatureBaseString builds METHOD&enc(baseURL)&enc(sorted params).
func signatureBaseString(method string, u *url.URL, oauthParams [][2]string) string {
	pairs := make([][2]string, 0, len(oauthParams)+len(u.Query()))
	for _, p := range oauthParams {
		pairs = append(pairs, [2]string{percentEncode(p[0]), percentEncode(p[1])})
	}
	for k, vs := range u.Query() {
		for _, v := range vs {
			pairs = append(pairs, [2]string{percentEncode(k), percentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p[0] + "=" + p[1]
	}

	return strings.ToUpper(method) + "&" +
		percentEncode(normalisedBaseURL(u)) + "&" +
		percentEncode(strings.Join(encoded, "&"))
}

// normalisedBaseURL lowercases scheme and host and drops default ports.
func normalisedBaseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" &&
		!(scheme == "https" && port == "443") && !(scheme == "http" && port == "80") {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// percentEncode applies RFC 3986 encoding, leaving only unreserved characters.
func percentEncode(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}
	return b.String()
}

// randomNonce mixes random bytes with the nanosecond clock so two nonces
// generated within the same millisecond still differ.
func randomNonce(now time.Time) string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(now.UnixNano(), 36)
	}
	return hex.EncodeToString(buf) + strconv.FormatInt(now.UnixNano(), 36)
}

// quoteEscaper escapes the realm for use inside a quoted-string.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ParseAuthorizationHeader splits an OAuth header into its parameters.
// Quoted values may contain commas. The realm is returned as sent; every
// other value is percent-decoded.
func ParseAuthorizationHeader(header string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(header), "OAuth ")
	if !ok {
		return nil, fmt.Errorf("not an OAuth authorization header")
	}

	out := make(map[string]string)
	for {
		rest = strings.TrimLeft(rest, " \t,")
		if rest == "" {
			return out, nil
		}

		eq := strings.IndexAny(rest, "=,")
		if eq < 0 || rest[eq] != '=' {
			return nil, fmt.Errorf("malformed parameter %q", rest)
		}
		key := strings.TrimSpace(rest[:eq])
		rest = strings.TrimLeft(rest[eq+1:], " \t")

		var value string
		if strings.HasPrefix(rest, `"`) {
			v, n, err := readQuoted(rest)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", key, err)
			}
			value, rest = v, rest[n:]
		} else {
			end := strings.IndexByte(rest, ',')
			if end < 0 {
				end = len(rest)
			}
			value, rest = strings.TrimSpace(rest[:end]), rest[end:]
		}

		if key != "realm" {
			unescaped, err := url.PathUnescape(value)
			if err != nil {
				return nil, fmt.Errorf("unescape %s: %w", key, err)
			}
			value = unescaped
		}
		out[key] = value
	}
}

// readQuoted reads a quoted-string at the start of s and returns its
// unescaped content and the number of bytes consumed.
func readQuoted(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 == len(s) {
				return "", 0, fmt.Errorf("unterminated escape")
			}
			i++
			b.WriteByte(s[i])
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted value")
}
