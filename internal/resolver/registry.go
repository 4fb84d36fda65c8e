package resolver

import (
	"fmt"
	"sync"
)

// Registry holds the known providers. Lookup order is registration order.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewRegistry creates a registry with the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider. A provider with the same name is replaced.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.providers {
		if existing.Name() == p.Name() {
			r.providers[i] = p
			return
		}
	}
	r.providers = append(r.providers, p)
}

// ForHost returns the provider that handles host.
func (r *Registry) ForHost(host string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.providers {
		if p.Supports(host) {
			return p, nil
		}
	}
	if host == "" {
		return nil, fmt.Errorf("%w: image has no registry host, available: %v", ErrUnsupportedRegistry, r.namesLocked())
	}
	return nil, fmt.Errorf("%w: %q, available: %v", ErrUnsupportedRegistry, host, r.namesLocked())
}

// IsSupported reports whether any provider handles host.
func (r *Registry) IsSupported(host string) bool {
	_, err := r.ForHost(host)
	return err == nil
}

// List returns the registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}
