package checkin

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type registryKey struct {
	token   string
	orderID int64
}

// Registry keeps one Synchronizer per (session token, order) so that
// staged selections survive between HTTP requests of the same page.
// Entries idle longer than the configured duration are evicted.
type Registry struct {
	mu      sync.Mutex
	entries *expirable.LRU[registryKey, *Synchronizer]
	opts    []SynchronizerOption
}

func NewRegistry(idle time.Duration, opts ...SynchronizerOption) *Registry {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Registry{
		entries: expirable.NewLRU[registryKey, *Synchronizer](0, nil, idle),
		opts:    opts,
	}
}

// Get returns the synchronizer for the pair, creating it over api when
// none exists. An existing synchronizer keeps the api it was created
// with; the token is part of the key.
func (r *Registry) Get(token string, orderID int64, api OrdersAPI) *Synchronizer {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{token: token, orderID: orderID}
	s, ok := r.entries.Get(key)
	if !ok {
		s = NewSynchronizer(api, r.opts...)
	}
	// Re-adding restarts the idle clock.
	r.entries.Add(key, s)
	return s
}

// Lookup returns an existing synchronizer without creating one.
func (r *Registry) Lookup(token string, orderID int64) (*Synchronizer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{token: token, orderID: orderID}
	s, ok := r.entries.Get(key)
	if !ok {
		return nil, false
	}
	r.entries.Add(key, s)
	return s, true
}

// Forget drops every synchronizer bound to the token, used on logout or 401.
func (r *Registry) Forget(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range r.entries.Keys() {
		if k.token == token {
			r.entries.Remove(k)
		}
	}
}

func (r *Registry) Len() int {
	return r.entries.Len()
}
