package platform

import (
	"fmt"

	"postplane/internal/store"
)

// Registry maps platforms to their adapters. Core logic never branches
// on a platform name beyond looking up the adapter here; a new platform
// is added by registering a new Adapter.
type Registry struct {
	adapters map[store.Platform]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[store.Platform]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a platform.
func (r *Registry) Get(p store.Platform) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for platform %q", p)
	}
	return a, nil
}

// Defaults returns a registry with all production adapters.
func Defaults() *Registry {
	return NewRegistry(
		NewLinkedIn(""),
		NewTwitter("", ""),
		NewFacebook(""),
	)
}
