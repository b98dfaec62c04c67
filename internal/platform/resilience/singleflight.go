package resilience

import "sync"

// SingleFlight deduplicates concurrent calls for the same key: while a call
// for a key is running, later callers wait for it and adopt its result
// instead of starting their own.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*inflight
}

type inflight struct {
	done chan struct{}
	val  any
	err  error
}

// Do invokes fn for key, or joins an in-flight invocation for the same key.
// shared reports whether the result was adopted from another caller's
// invocation. The in-flight marker is cleared when fn returns, regardless of
// outcome, so a later miss starts a fresh call.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*inflight)
	}

	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &inflight{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(c.done)

	return c.val, c.err, false
}

// InFlight reports whether a call for key is currently running.
func (g *SingleFlight) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}
