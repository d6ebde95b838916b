package jsonclient

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kroma-labs/beacon-go/fault"
)

// DefaultTimeout bounds a single request when Connection.Timeout is unset.
const DefaultTimeout = 120 * time.Second

// secureScheme is the transport prefix required for credentialed requests.
const secureScheme = "https://"

// Connection describes the remote endpoint for a single Execute call.
//
// The bare-URL descriptor form is NewConnection(url). Header values may be
// strings or numbers; they are stringified during normalization. Header keys
// are compared case-insensitively throughout.
type Connection struct {
	// URL is the endpoint. Required.
	URL string

	// User and Password enable HTTP basic authentication. Credentials
	// require an https URL unless AllowInsecureAuth is set.
	User     string
	Password string

	// AllowInsecureAuth permits sending credentials over plain http.
	AllowInsecureAuth bool

	// Timeout bounds the whole request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Headers are merged into the outgoing request. The last assignment
	// for a given lower-cased key determines both the transmitted
	// capitalization and the value.
	Headers map[string]any
}

// NewConnection returns a Connection for a bare URL with no headers or auth.
func NewConnection(url string) *Connection {
	return &Connection{URL: url}
}

// normalize derives the immutable wire request for one call.
//
// Rules, in application order (last write per lower-cased key wins):
//  1. connection headers, keys applied in sorted order;
//  2. synthesized Authorization header when credentials are present;
//  3. Content-Type: application/json when a body is supplied — this
//     overwrites a caller-supplied Content-Type.
//
// An If-None-Match or If-Modified-Since header flips Allow304.
func normalize(errs *fault.Factory, conn *Connection, body []byte) (*WireRequest, error) {
	if conn == nil || conn.URL == "" {
		return nil, errs.Emit(fault.New(fault.InvalidArgument, "missing connection url").
			With("argument", "connection.url"))
	}

	req := &WireRequest{
		URL:         conn.URL,
		Method:      http.MethodGet,
		Headers:     make(map[string]HeaderValue, len(conn.Headers)+2),
		Timeout:     conn.Timeout,
		Mode:        ModeCORS,
		Cache:       CacheNoCache,
		Credentials: CredentialsSameOrigin,
		Redirect:    RedirectFollow,
	}
	if req.Timeout <= 0 {
		req.Timeout = DefaultTimeout
	}

	keys := make([]string, 0, len(conn.Headers))
	for k := range conn.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		lower := strings.ToLower(k)
		req.Headers[lower] = HeaderValue{Name: k, Value: stringifyHeader(conn.Headers[k])}
		if lower == "if-none-match" || lower == "if-modified-since" {
			req.Allow304 = true
		}
	}

	if conn.User != "" || conn.Password != "" {
		if !strings.HasPrefix(conn.URL, secureScheme) && !conn.AllowInsecureAuth {
			return nil, errs.Emit(fault.New(fault.Security, "basic auth requires https").
				With("url", conn.URL))
		}
		credentials := conn.User + ":" + conn.Password
		req.Headers["authorization"] = HeaderValue{
			Name:  "Authorization",
			Value: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		}
	}

	if body != nil {
		req.Method = http.MethodPost
		req.Body = body
		req.Headers["content-type"] = HeaderValue{
			Name:  "Content-Type",
			Value: "application/json",
		}
	}

	return req, nil
}

// stringifyHeader renders a string-or-number header value for the wire.
func stringifyHeader(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
