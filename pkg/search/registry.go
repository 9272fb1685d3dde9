package search

import (
	"sync"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
)

// maxCachedIndexes bounds how many namespaces a Registry remembers. Beyond
// it, indexes are built per call.
const maxCachedIndexes = 1024

// Registry hands out one Index per namespace over a shared store, all built
// with the same options.
type Registry struct {
	store   store.Store
	opts    []Option
	mu      sync.RWMutex
	indexes map[string]*Index
}

func NewRegistry(st store.Store, opts ...Option) *Registry {
	return &Registry{
		store:   st,
		opts:    opts,
		indexes: make(map[string]*Index),
	}
}

// Get returns the Index for namespace, creating it on first use.
func (r *Registry) Get(namespace string) (*Index, error) {
	r.mu.RLock()
	idx, ok := r.indexes[namespace]
	r.mu.RUnlock()
	if ok {
		return idx, nil
	}

	idx, err := New(r.store, namespace, r.opts...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.indexes[namespace]; ok {
		return existing, nil
	}
	if len(r.indexes) < maxCachedIndexes {
		r.indexes[namespace] = idx
	}
	return idx, nil
}
