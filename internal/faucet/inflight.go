package faucet

import "sync"

// inflight tracks recipients with a distribution already underway, keyed by
// the canonical form of the address. Without it, two concurrent requests for
// the same recipient both pass the threshold check and double-send.
type inflight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{active: make(map[string]struct{})}
}

func (l *inflight) tryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[key]; busy {
		return false
	}
	l.active[key] = struct{}{}
	return true
}

func (l *inflight) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, key)
}
