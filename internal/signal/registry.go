// Package signal owns signal identity and sample retention: the
// registry assigns each discovered name a stable order index, and the
// store keeps the per-signal series plus the shared time index that
// window boundaries are computed from.
package signal

import "sync"

// Registry tracks the ordered set of known signal names. Indices are
// assigned at first registration and never change; the inclusion flag
// is the only mutable attribute. The stream pump is the sole writer of
// new names; the HTTP layer reads and toggles concurrently, so all
// access goes through one mutex.
type Registry struct {
	mu       sync.RWMutex
	names    []string
	index    map[string]int
	included map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		index:    make(map[string]int),
		included: make(map[string]bool),
	}
}

// RegisterIfNew returns the stable order index for name, allocating
// the next index if the name is unseen. Registering an existing name
// is idempotent. New signals default to included.
func (r *Registry) RegisterIfNew(name string) (index int, isNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[name]; ok {
		return i, false
	}
	i := len(r.names)
	r.names = append(r.names, name)
	r.index[name] = i
	r.included[name] = true
	return i, true
}

// Names returns a snapshot of registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Index returns the order index for name.
func (r *Registry) Index(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	return i, ok
}

// Len returns the number of registered signals.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// IsIncluded reports the inclusion flag for name. Unregistered names
// report false.
func (r *Registry) IsIncluded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.included[name]
}

// SetIncluded toggles the inclusion flag. It reports whether the name
// was registered; the flag of an unknown name is not created.
func (r *Registry) SetIncluded(name string, included bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[name]; !ok {
		return false
	}
	r.included[name] = included
	return true
}
