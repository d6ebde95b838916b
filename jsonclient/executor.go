package jsonclient

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/beacon-go/fault"
)

// ResponseEnvelope describes the response independent of its payload.
// Header keys are lower-cased with a single value per key.
type ResponseEnvelope struct {
	StatusCode int
	Status     string
	Headers    map[string]string
}

// Transform post-processes the parsed payload. Its return value replaces the
// payload; an error is surfaced as a fault.Server failure carrying the
// payload it was given.
type Transform func(payload any, resp *ResponseEnvelope) (any, error)

// Executor performs single-shot JSON requests. It is safe for concurrent
// use; each call owns its own timer and state exclusively.
type Executor struct {
	cfg *config
}

// New creates an Executor. See the With* options for configuration.
func New(opts ...Option) *Executor {
	return &Executor{cfg: newConfig(opts...)}
}

// sendResult carries the transport outcome across the timeout race.
type sendResult struct {
	resp *WireResponse
	err  error
}

// Execute performs exactly one HTTP round trip against conn.
//
// A nil body sends a GET; a non-nil body (raw JSON, attached verbatim) sends
// a POST with Content-Type application/json. The parsed payload — nil for a
// 304 under a conditional request — is passed through transform when one is
// supplied.
//
// The configured timeout races the transport: whichever completes first
// determines the outcome, and the loser is inert. Failures are tagged
// fault errors except transport-layer errors, which pass through unchanged.
func (e *Executor) Execute(
	ctx context.Context,
	conn *Connection,
	body []byte,
	transform Transform,
) (any, error) {
	wire, err := normalize(e.cfg.errs, conn, body)
	if err != nil {
		return nil, err
	}

	ctx, span := e.cfg.tracer.Start(ctx, "JSON "+wire.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", wire.Method),
			attribute.String("url.full", wire.URL),
		),
	)
	defer span.End()

	requestID := uuid.NewString()
	e.cfg.logger.Debug().
		Str("request_id", requestID).
		Str("method", wire.Method).
		Str("url", wire.URL).
		Dur("timeout", wire.Timeout).
		Msg("sending request")

	attrs := e.cfg.baseAttributes()
	e.cfg.metrics.recordActiveStart(ctx, attrs)
	defer e.cfg.metrics.recordActiveEnd(ctx, attrs)

	start := time.Now()
	resp, err := e.send(ctx, wire)
	duration := time.Since(start)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		e.cfg.metrics.recordError(ctx, errorType(err), attrs)
		e.cfg.metrics.recordDuration(ctx, duration, attrs)
		e.cfg.logger.Debug().
			Str("request_id", requestID).
			Err(err).
			Msg("request failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	e.cfg.metrics.recordDuration(ctx, duration, append(attrs,
		attribute.Int("http.response.status_code", resp.StatusCode)))

	payload, err := e.classify(wire, resp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		e.cfg.metrics.recordError(ctx, errorType(err), attrs)
		return nil, err
	}

	if transform != nil {
		transformed, terr := transform(payload, &ResponseEnvelope{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    resp.Headers,
		})
		if terr != nil {
			err := e.cfg.errs.Emit(fault.New(fault.Server, "processing response error").
				With("body", payload).
				With("url", wire.URL).
				Wrap(terr))
			span.SetStatus(codes.Error, err.Error())
			e.cfg.metrics.recordError(ctx, errorType(err), attrs)
			return nil, err
		}
		payload = transformed
	}

	e.cfg.logger.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("request settled")

	return payload, nil
}

// send races the transport against the wire timeout. The first of
// {timer, transport, caller cancellation} to complete settles the call; the
// transport's sub-context is cancelled on loss so a late completion lands in
// a buffered channel and is discarded.
func (e *Executor) send(ctx context.Context, wire *WireRequest) (*WireResponse, error) {
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan sendResult, 1)
	go func() {
		resp, err := e.cfg.transport.Send(sendCtx, wire)
		results <- sendResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(wire.Timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		e.cfg.metrics.recordTimeout(ctx, e.cfg.baseAttributes())
		return nil, e.cfg.errs.Emit(fault.New(fault.Timeout, "request timed out").
			With("timeout", wire.Timeout.String()).
			With("url", wire.URL))
	case <-ctx.Done():
		return nil, e.cfg.errs.Emit(fault.New(fault.Cancelled, "request cancelled").
			With("url", wire.URL).
			Wrap(context.Cause(ctx)))
	case res := <-results:
		// A transport failure racing the caller's cancellation settles as
		// cancelled either way.
		if res.err != nil && ctx.Err() != nil {
			return nil, e.cfg.errs.Emit(fault.New(fault.Cancelled, "request cancelled").
				With("url", wire.URL).
				Wrap(context.Cause(ctx)))
		}
		return res.resp, res.err
	}
}

// classify turns the wire response into a parsed payload or a tagged error.
func (e *Executor) classify(wire *WireRequest, resp *WireResponse) (any, error) {
	if wire.Allow304 && resp.StatusCode == 304 {
		// Not modified: the payload is defined as "no update".
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, e.cfg.errs.Emit(fault.New(fault.Server, "bad response").
			With("status", resp.StatusCode).
			With("body", string(resp.Body)).
			With("responseType", resp.Headers["content-type"]).
			With("url", wire.URL))
	}

	var payload any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, e.cfg.errs.Emit(fault.New(fault.Server, "invalid JSON response").
			With("body", string(resp.Body)).
			With("url", wire.URL).
			Wrap(err))
	}

	return payload, nil
}

// errorType labels an error for metrics.
func errorType(err error) string {
	if kind := fault.KindOf(err); kind != "" {
		return string(kind)
	}
	return "transport"
}
