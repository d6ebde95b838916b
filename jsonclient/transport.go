package jsonclient

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Fixed transport policy carried on every wire request.
const (
	// ModeCORS is the cross-origin mode.
	ModeCORS = "cors"
	// CacheNoCache forces revalidation with the origin.
	CacheNoCache = "no-cache"
	// CredentialsSameOrigin restricts ambient credentials.
	CredentialsSameOrigin = "same-origin"
	// RedirectFollow follows redirects transparently.
	RedirectFollow = "follow"
)

// HeaderValue pairs the original capitalization of a header name with its
// value. Wire requests key headers by lower-cased name; the Name field
// preserves the capitalization of the last assignment for output.
type HeaderValue struct {
	Name  string
	Value string
}

// WireRequest is the fully-determined request handed to a Transport.
// It is never mutated after normalization.
type WireRequest struct {
	URL     string
	Method  string
	Headers map[string]HeaderValue
	Body    []byte
	Timeout time.Duration

	// Allow304 is set when the caller supplied a conditional-request
	// header; a 304 response then means "no update" rather than failure.
	Allow304 bool

	// Fixed policy fields. Transports that cannot express a policy
	// (Go's net/http has no CORS mode) map or ignore it.
	Mode        string
	Cache       string
	Credentials string
	Redirect    string
}

// WireResponse is what a Transport yields for one round trip.
// Header keys are lower-cased; later duplicates overwrite earlier ones.
type WireResponse struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
}

// Transport performs one HTTP round trip. Implementations must honor ctx
// cancellation; the executor cancels it when its timeout fires.
type Transport interface {
	Send(ctx context.Context, req *WireRequest) (*WireResponse, error)
}

// Compile-time interface check.
var _ Transport = (*httpTransport)(nil)

// httpTransport is the default Transport backed by net/http.
type httpTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps an *http.Client as a Transport. A nil client gets
// a pooled default. The client must not have a Timeout of its own; the
// executor owns the deadline.
func NewHTTPTransport(client *http.Client) Transport {
	if client == nil {
		client = defaultHTTPClient()
	}
	return &httpTransport{client: client}
}

// defaultHTTPClient builds a pooled client. Redirects are followed, which
// matches the fixed redirect policy.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Send implements Transport.
func (t *httpTransport) Send(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	for _, hv := range req.Headers {
		// Assign directly to preserve the recorded capitalization.
		httpReq.Header[hv.Name] = []string{hv.Value}
	}

	if req.Cache == CacheNoCache {
		if _, ok := req.Headers["cache-control"]; !ok {
			httpReq.Header.Set("Cache-Control", "no-cache")
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	// The body is read as text first, independent of status.
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k, values := range httpResp.Header {
		if len(values) == 0 {
			continue
		}
		headers[strings.ToLower(k)] = values[len(values)-1]
	}

	return &WireResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       respBody,
	}, nil
}
