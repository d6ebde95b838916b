// Package poll provides a generic asynchronous polling driver with
// exponential backoff, jitter, bounds clamping, external wake-up, and
// cancellation.
//
// A probe is invoked repeatedly until it yields a value, fails, exhausts the
// retry limit, exceeds the overall timeout, or the caller cancels. Attempts
// are strictly sequential: a new attempt never starts while a previous
// probe is still pending.
//
// # Quick Start
//
//	head, err := poll.Poll(ctx, func(ctx context.Context) (string, bool, error) {
//	    payload, err := executor.Execute(ctx, conn, nil, nil)
//	    if err != nil {
//	        return "", false, err
//	    }
//	    if payload == nil {
//	        return "", false, nil // not ready yet, try again
//	    }
//	    return payload.(string), true, nil
//	},
//	    poll.WithTimeout(30*time.Second),
//	    poll.WithRetryLimit(10),
//	)
//
// Between attempts the driver sleeps interval × ⌊rand·2^attempt⌋, clamped to
// [floor, ceiling]. The multiplicative jitter avoids synchronized retry
// storms across concurrent callers; the clamp bounds both the minimum
// courtesy delay and the maximum staleness.
//
// # Event-Driven Cadence
//
// Supplying a wake source replaces wall-clock backoff entirely: the next
// attempt runs when the external event fires (a chain-head notifier, for
// example), and the attempt counter does not advance:
//
//	heads := poll.NewNotifier()
//	// elsewhere: heads.Notify() on every new head
//	value, err := poll.Poll(ctx, probe, poll.WithWake(heads.Wake))
//
// Retrying belongs exclusively to this package; the jsonclient executor
// never retries on its own.
package poll
