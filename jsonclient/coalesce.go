package jsonclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"
)

// coalesceTransport deduplicates identical in-flight requests with a
// singleflight group. Concurrent callers with the same coalesce key share
// one round trip and receive the same immutable WireResponse.
type coalesceTransport struct {
	group singleflight.Group
	next  Transport
}

func newCoalesceTransport(next Transport) Transport {
	return &coalesceTransport{next: next}
}

// Send implements Transport.
func (t *coalesceTransport) Send(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	v, err, _ := t.group.Do(coalesceKey(req), func() (any, error) {
		return t.next.Send(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*WireResponse), nil
}

// coalesceKey hashes method, URL, normalized headers and body so only truly
// identical requests are merged. Headers are keyed lower-cased already;
// sorting makes the key independent of map order.
func coalesceKey(req *WireRequest) string {
	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(req.Method)
	b.WriteString("|")
	b.WriteString(req.URL)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(req.Headers[k].Value)
	}
	if len(req.Body) > 0 {
		bodyHash := sha256.Sum256(req.Body)
		b.WriteString("|")
		b.WriteString(hex.EncodeToString(bodyHash[:]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
