package manager

import "sync"

// guard is a keyed try-lock table: at most one install/update/uninstall may be
// in flight per extension identity, while operations on different identities
// proceed in parallel.
type guard struct {
	mu       sync.Mutex
	inflight map[string]bool
}

func newGuard() *guard {
	return &guard{inflight: make(map[string]bool)}
}

// acquire claims the identity. It never blocks: a second claim while one is
// in flight reports false.
func (g *guard) acquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight[id] {
		return false
	}
	g.inflight[id] = true
	return true
}

func (g *guard) release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, id)
}
