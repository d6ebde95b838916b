package jsonclient

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// MockTransport is a configurable Transport for testing. It allows stubbing
// responses and verifying what was sent without a network.
type MockTransport struct {
	mu          sync.Mutex
	queue       []mockOutcome
	defaultResp *WireResponse
	defaultErr  error
	delay       time.Duration
	requests    []*WireRequest
}

type mockOutcome struct {
	resp *WireResponse
	err  error
}

// NewMockTransport creates a MockTransport that returns 200 with an empty
// JSON object until stubbed otherwise.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		defaultResp: mockResponse(http.StatusOK, `{}`, nil),
	}
}

// StubResponse makes all requests return the given status and body.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = mockResponse(statusCode, body, nil)
	m.defaultErr = nil
	return m
}

// StubResponseWithHeaders makes all requests return the given status, body
// and headers (keys are lower-cased like a real wire response).
func (m *MockTransport) StubResponseWithHeaders(
	statusCode int,
	body string,
	headers map[string]string,
) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = mockResponse(statusCode, body, headers)
	m.defaultErr = nil
	return m
}

// StubError makes all requests fail with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
	return m
}

// StubDelay delays every response. The delay is interruptible by context
// cancellation, so timeout races observe a hanging transport.
func (m *MockTransport) StubDelay(d time.Duration) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// EnqueueResponse appends a one-shot response consumed before the default.
func (m *MockTransport) EnqueueResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockOutcome{resp: mockResponse(statusCode, body, nil)})
	return m
}

// EnqueueError appends a one-shot error consumed before the default.
func (m *MockTransport) EnqueueError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockOutcome{err: err})
	return m
}

// Requests returns a copy of all requests seen so far.
func (m *MockTransport) Requests() []*WireRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*WireRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of requests seen so far.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil.
func (m *MockTransport) LastRequest() *WireRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Send implements Transport.
func (m *MockTransport) Send(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	delay := m.delay
	var outcome mockOutcome
	if len(m.queue) > 0 {
		outcome = m.queue[0]
		m.queue = m.queue[1:]
	} else {
		outcome = mockOutcome{resp: m.defaultResp, err: m.defaultErr}
	}
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if outcome.err != nil {
		return nil, outcome.err
	}
	return outcome.resp, nil
}

func mockResponse(statusCode int, body string, headers map[string]string) *WireResponse {
	h := map[string]string{"content-type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return &WireResponse{
		StatusCode: statusCode,
		Status:     strconv.Itoa(statusCode) + " " + http.StatusText(statusCode),
		Headers:    h,
		Body:       []byte(body),
	}
}
