// Package dedupe tracks which fetch jobs a run has already planned.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// Deduper records seen job keys so each dataset is fetched at most once per run.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if it was not.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a failed job can be planned again.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// inMemoryDeduper keeps keys in a map. When maxSize is positive the oldest
// key is evicted once the limit is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates an unbounded deduper unless WithMaxSize says otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:  make(map[string]*list.Element),
		order: list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
