package jsonclient

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the optional circuit breaker around the Transport.
// A request counts as a failure when the transport errors or the response
// status is 500 or above.
type BreakerConfig struct {
	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the minimum request count before tripping.
	FailureThreshold uint32

	// ConsecutiveFailures trips the breaker when reached. Zero disables
	// the consecutive rule.
	ConsecutiveFailures uint32

	// FailureRatio trips the breaker when the failure ratio reaches it.
	// Zero disables the ratio rule.
	FailureRatio float64

	// OnStateChange is invoked on breaker state transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

// errBreakerSynthetic signals the breaker that a request failed (5xx status)
// even though the transport returned no error. It is unwrapped before
// returning to the caller.
var errBreakerSynthetic = errors.New("synthetic failure")

// breakerTransport wraps a Transport in a circuit breaker.
type breakerTransport struct {
	breaker *gobreaker.CircuitBreaker[*WireResponse]
	next    Transport
}

// newBreakerTransport builds the breaker from config. The service name is
// the breaker identifier; an empty name falls back to a default.
func newBreakerTransport(next Transport, cfg *BreakerConfig, name string) Transport {
	if name == "" {
		name = "default-jsonclient"
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.FailureThreshold > 0 && counts.Requests < cfg.FailureThreshold {
				return false
			}
			if cfg.ConsecutiveFailures > 0 &&
				counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if cfg.FailureRatio > 0 && counts.TotalFailures > 0 {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				if ratio >= cfg.FailureRatio {
					return true
				}
			}
			return false
		},
		OnStateChange: cfg.OnStateChange,
	}

	return &breakerTransport{
		breaker: gobreaker.NewCircuitBreaker[*WireResponse](settings),
		next:    next,
	}
}

// Send implements Transport.
func (t *breakerTransport) Send(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	resp, err := t.breaker.Execute(func() (*WireResponse, error) {
		resp, err := t.next.Send(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errBreakerSynthetic
		}
		return resp, nil
	})
	if err != nil {
		// 5xx responses still reach the caller; the breaker just counts them.
		if errors.Is(err, errBreakerSynthetic) && resp != nil {
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}
