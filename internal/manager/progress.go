package manager

import "sync"

// tracker turns per-artifact byte progress into a single count-weighted
// fraction across all artifacts of an operation. Reported values are
// monotonically non-decreasing and reach 1.0 before success completion.
type tracker struct {
	cb func(float64)

	mu        sync.Mutex
	total     int
	completed int
	current   float64
	last      float64
}

func newTracker(cb func(float64)) *tracker {
	return &tracker{cb: cb}
}

func (t *tracker) setTotal(n int) {
	t.mu.Lock()
	t.total = n
	t.mu.Unlock()
}

// update reports the in-flight artifact's own fraction (0..1).
func (t *tracker) update(frac float64) {
	t.mu.Lock()
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	t.current = frac
	t.mu.Unlock()
	t.report()
}

// artifactDone marks the in-flight artifact fully downloaded.
func (t *tracker) artifactDone() {
	t.mu.Lock()
	t.completed++
	t.current = 0
	t.mu.Unlock()
	t.report()
}

// complete forces the final 1.0 report on the success path.
func (t *tracker) complete() {
	t.mu.Lock()
	t.last = 1
	t.mu.Unlock()
	if t.cb != nil {
		t.cb(1)
	}
}

func (t *tracker) report() {
	t.mu.Lock()
	var overall float64
	if t.total > 0 {
		overall = (float64(t.completed) + t.current) / float64(t.total)
	}
	if overall < t.last {
		overall = t.last
	}
	t.last = overall
	cb := t.cb
	t.mu.Unlock()

	if cb != nil {
		cb(overall)
	}
}
