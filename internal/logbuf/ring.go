// Package logbuf keeps bounded, in-memory histories: recent log records
// for the /api/logs endpoint and recent desk exchanges for the activity
// feed.
package logbuf

import "sync"

// Ring is a fixed-capacity FIFO. When full, each Push evicts the oldest
// item. It is safe for concurrent use.
type Ring[T any] struct {
	mu    sync.Mutex
	items []T
	next  int
	full  bool
}

// NewRing returns a ring holding at most size items. size < 1 is treated as 1.
func NewRing[T any](size int) *Ring[T] {
	return &Ring[T]{items: make([]T, max(size, 1))}
}

// Push appends v.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	r.items[r.next] = v
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
}

// Len returns the number of stored items.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.items)
	}
	return r.next
}

// Select returns the items for which keep reports true, oldest first.
// A nil keep selects everything. When limit > 0 only the newest limit
// matches are returned.
func (r *Ring[T]) Select(keep func(T) bool, limit int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	start, n := 0, r.next
	if r.full {
		start, n = r.next, len(r.items)
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v := r.items[(start+i)%len(r.items)]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
