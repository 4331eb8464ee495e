package circuitbreaker

import (
	"log/slog"
	"sort"
	"sync"
)

type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	settings Settings
	observer Observer
	log      *slog.Logger
}

func NewRegistry(s Settings, observer Observer, log *slog.Logger) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		settings: s,
		observer: observer,
		log:      log,
	}
}

// Get returns the breaker for route, creating it on first use.
func (r *Registry) Get(route string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[route]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[route]; ok {
		return b
	}
	b = New(route, r.settings, r.observer, r.log)
	r.breakers[route] = b
	return b
}

func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	list := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		list = append(list, b)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(list))
	for _, b := range list {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}
