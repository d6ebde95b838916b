package poll

import (
	"context"
	"errors"
	"time"

	"github.com/kroma-labs/beacon-go/fault"
)

// Probe is a zero-argument asynchronous probe. ok=false is the "not ready
// yet" sentinel, so falsy-but-defined values (zero structs, empty strings)
// still settle the run when ok is true.
type Probe[T any] func(ctx context.Context) (value T, ok bool, err error)

// Poll invokes probe until it yields a value, fails, exhausts the retry
// limit, exceeds the overall timeout, or ctx is cancelled.
//
// Attempts are strictly sequential. Between attempts the driver either
// sleeps per the backoff policy or, when a wake source is configured, waits
// for the next external event (without advancing the attempt counter).
// The run settles exactly once: the first of {timeout, retry limit, probe
// failure, probe success} wins and any pending timer is released; a probe
// failure observed after cancellation is discarded in favor of the
// cancellation outcome.
func Poll[T any](ctx context.Context, probe Probe[T], opts ...Option) (T, error) {
	var zero T
	cfg := newConfig(opts...)
	pol := cfg.policy

	if pol.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, pol.Timeout,
			fault.New(fault.Timeout, "poll timed out").
				With("timeout", pol.Timeout.String()))
		defer cancel()
	}

	b := &ExpJitterBackOff{
		Interval: pol.Interval,
		Floor:    pol.Floor,
		Ceiling:  pol.Ceiling,
	}

	attrs := cfg.baseAttributes()
	start := time.Now()

	settle := func(outcome string) {
		cfg.metrics.recordRun(ctx, outcome, time.Since(start), attrs)
	}

	for {
		value, ok, err := probe(ctx)
		cfg.metrics.recordAttempt(ctx, attrs)

		if err != nil {
			// A failure landing after the run was cancelled is inert;
			// the cancellation outcome wins.
			if ctx.Err() != nil {
				settle("timeout")
				return zero, cfg.settleCtx(ctx)
			}
			settle("probe_error")
			return zero, err
		}

		if ok {
			settle("resolved")
			cfg.logger.Debug().
				Int("attempt", b.Attempt()).
				Dur("elapsed", time.Since(start)).
				Msg("poll resolved")
			return value, nil
		}

		if pol.Wake != nil {
			if err := pol.Wake(ctx); err != nil {
				if ctx.Err() != nil {
					settle("timeout")
					return zero, cfg.settleCtx(ctx)
				}
				settle("wake_error")
				return zero, err
			}
			continue
		}

		delay := b.NextBackOff()
		if pol.RetryLimit > 0 && b.Attempt() > pol.RetryLimit {
			settle("retry_limit")
			return zero, cfg.errs.Emit(fault.New(fault.RetryLimit, "retry limit exceeded").
				With("attempts", pol.RetryLimit))
		}

		cfg.logger.Debug().
			Int("attempt", b.Attempt()).
			Dur("delay", delay).
			Msg("probe not ready, backing off")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			settle("timeout")
			return zero, cfg.settleCtx(ctx)
		case <-timer.C:
		}
	}
}

// settleCtx maps a done context to a tagged error. An overall-timeout
// expiry carries its fault cause through context.Cause; caller-supplied
// deadlines and cancellations are tagged here.
func (c *config) settleCtx(ctx context.Context) error {
	err := context.Cause(ctx)

	var fe *fault.Error
	if errors.As(err, &fe) {
		return c.errs.Emit(fe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return c.errs.Emit(fault.New(fault.Timeout, "poll timed out").Wrap(err))
	case errors.Is(err, context.Canceled):
		return c.errs.Emit(fault.New(fault.Cancelled, "poll cancelled").Wrap(err))
	}
	return err
}
