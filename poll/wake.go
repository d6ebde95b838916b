package poll

import (
	"context"
	"sync"
)

// WakeFunc blocks until the next occurrence of an external event, replacing
// wall-clock backoff as the retry cadence. Each call is a fresh one-shot
// subscription; it returns ctx's cause when cancelled first.
type WakeFunc func(ctx context.Context) error

// WakeFromChan adapts a channel into a WakeFunc. Each receive (or channel
// close) counts as one occurrence.
func WakeFromChan(ch <-chan struct{}) WakeFunc {
	return func(ctx context.Context) error {
		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

// Notifier adapts emitter-style event sources to the wake capability.
// Wake registers a one-shot waiter; Notify releases every waiter registered
// at that moment. Waiters registered after a Notify wait for the next one.
type Notifier struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Wake is a WakeFunc: it blocks until the next Notify or ctx cancellation.
func (n *Notifier) Wake(ctx context.Context) error {
	ch := make(chan struct{})
	n.mu.Lock()
	n.waiters = append(n.waiters, ch)
	n.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Notify releases all currently-registered waiters exactly once.
func (n *Notifier) Notify() {
	n.mu.Lock()
	waiters := n.waiters
	n.waiters = nil
	n.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}
