// Package fetchguard prevents a logical fetch from running twice: once a
// fetch has succeeded, or while one is in flight, further attempts are
// skipped. A failed attempt leaves the guard open so the caller can retry.
package fetchguard

import (
	"context"
	"sync"
)

type Guard struct {
	mu        sync.Mutex
	key       string
	completed bool
	inflight  bool
}

func New() *Guard { return &Guard{} }

// ShouldFetch reports whether a fetch would actually run right now.
func (g *Guard) ShouldFetch() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.completed && !g.inflight
}

// Reset clears both flags, permitting a fresh fetch cycle.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = false
	g.inflight = false
}

// BindKey resets the guard whenever the identifying key changes, so a new
// session id or query gets its own fetch cycle.
func (g *Guard) BindKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if key != g.key {
		g.key = key
		g.completed = false
		g.inflight = false
	}
}

// begin atomically claims the in-flight slot. Returns false when the fetch
// must be skipped.
func (g *Guard) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.completed || g.inflight {
		return false
	}
	g.inflight = true
	return true
}

func (g *Guard) finish(succeeded bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inflight = false
	if succeeded {
		g.completed = true
	}
}

// Execute runs op under the guard. The second return reports whether op
// actually ran: a skipped call returns the zero value, false, nil without
// invoking op. A failed op propagates its error and leaves the guard open
// for a retry.
func Execute[T any](ctx context.Context, g *Guard, op func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if !g.begin() {
		return zero, false, nil
	}
	out, err := op(ctx)
	g.finish(err == nil)
	if err != nil {
		return zero, true, err
	}
	return out, true, nil
}
