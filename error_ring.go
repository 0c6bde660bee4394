package damper

import "sync"

// errorRing retains the most recent save errors in a fixed-capacity ring.
// A nil ring (capacity 0) is valid and drops everything.
type errorRing struct {
	mu    sync.RWMutex
	buf   []error
	next  int
	count int
}

// newErrorRing creates a ring retaining up to n errors. Returns nil when
// n <= 0, disabling history.
func newErrorRing(n int) *errorRing {
	if n <= 0 {
		return nil
	}
	return &errorRing{buf: make([]error, n)}
}

// record appends an error, evicting the oldest when full.
func (r *errorRing) record(err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = err
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// reset drops all retained errors.
func (r *errorRing) reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.buf {
		r.buf[i] = nil
	}
	r.next = 0
	r.count = 0
}

// recent returns the retained errors, oldest first. Nil when empty or disabled.
func (r *errorRing) recent() []error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	out := make([]error, 0, r.count)
	start := (r.next - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
