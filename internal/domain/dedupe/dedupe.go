// Package dedupe tracks client request ids so a resubmitted job is
// recognized instead of queued twice.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen request ids for at-most-once submission.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so the request can be retried. Used when a
	// submission was recorded but could not be queued.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps a bounded set of ids. When full, the oldest
// recorded id is evicted. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order; may hold ids already unrecorded
	front   int
	maxSize int
}

// NewInMemoryDeduper creates a deduper with the given options. The
// default capacity is 50000 ids.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize && d.evictOldest() {
		}
		d.order = append(d.order, id)
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// The order queue keeps a stale entry; eviction skips it later.
	delete(d.seen, id)
}

// evictOldest drops the oldest id still present and reports whether
// one was removed. Entries removed by Unrecord are skipped and their
// queue slots reclaimed. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() bool {
	removed := false
	for d.front < len(d.order) {
		id := d.order[d.front]
		d.front++
		if _, ok := d.seen[id]; ok {
			delete(d.seen, id)
			removed = true
			break
		}
	}
	// Compact once the consumed prefix dominates the queue.
	if d.front > len(d.order)/2 {
		d.order = append(d.order[:0], d.order[d.front:]...)
		d.front = 0
	}
	return removed
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
