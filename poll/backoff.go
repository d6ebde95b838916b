package poll

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Ensure the strategy implements the backoff.BackOff interface.
var _ backoff.BackOff = (*ExpJitterBackOff)(nil)

// Backoff defaults.
const (
	// DefaultInterval is the base delay unit.
	DefaultInterval = 250 * time.Millisecond

	// DefaultCeiling caps the inter-attempt delay.
	DefaultCeiling = 10 * time.Second
)

// ExpJitterBackOff computes interval × ⌊random · 2^attempt⌋, clamped to
// [Floor, Ceiling]. The random factor is drawn fresh per attempt, so two
// concurrent pollers against the same endpoint diverge instead of
// retrying in lockstep.
//
// Example with Interval=250ms, attempt 3: the factor is uniform over
// ⌊[0, 8)⌋, so the delay is one of 0ms, 250ms, …, 1.75s before clamping.
type ExpJitterBackOff struct {
	// Interval is the base delay unit. Default: 250ms.
	Interval time.Duration

	// Floor is the minimum delay. Default: 0.
	Floor time.Duration

	// Ceiling is the maximum delay. Default: 10s.
	Ceiling time.Duration

	// attempt counts retry decisions; it starts at 0 and increments once
	// per NextBackOff call.
	attempt int
}

// NewExpJitterBackOff creates an ExpJitterBackOff with defaults.
func NewExpJitterBackOff() *ExpJitterBackOff {
	return &ExpJitterBackOff{
		Interval: DefaultInterval,
		Ceiling:  DefaultCeiling,
	}
}

// Reset resets the attempt counter.
func (b *ExpJitterBackOff) Reset() {
	b.attempt = 0
}

// Attempt returns the number of retry decisions taken so far.
func (b *ExpJitterBackOff) Attempt() int {
	return b.attempt
}

// NextBackOff increments the attempt counter and returns the next delay.
func (b *ExpJitterBackOff) NextBackOff() time.Duration {
	b.attempt++

	interval := b.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ceiling := b.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}

	// Computed in float space: 2^attempt overflows a Duration long before
	// the clamp would apply.
	//nolint:gosec // intentional weak rand for jitter (not cryptographic)
	factor := math.Floor(rand.Float64() * math.Exp2(float64(b.attempt)))
	delay := float64(interval) * factor

	if delay > float64(ceiling) || math.IsInf(delay, 1) {
		return ceiling
	}
	if delay < float64(b.Floor) {
		return b.Floor
	}
	return time.Duration(delay)
}
