package resolver

import (
	"context"
	"errors"
	"fmt"
)

// Provider turns an opaque event link into a playable stream URL.
type Provider interface {
	// ID is the stable token callers use to enable the provider.
	ID() string
	// DisplayName is the label shown in stream titles.
	DisplayName() string
	// Decipher resolves a link to a playable URL. An empty URL with a
	// nil error means no candidate. Failures must stay local to the
	// call; the engine isolates them from sibling calls.
	Decipher(ctx context.Context, link string) (string, error)
}

// Registry holds the registered providers in a fixed order. It is
// validated at startup and read-only afterwards, so it is safe to
// share across concurrent resolution requests.
type Registry struct {
	providers []Provider
	byID      map[string]Provider
}

// NewRegistry validates and indexes the providers. Registration order
// is the canonical provider order used for candidate numbering.
func NewRegistry(providers ...Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, errors.New("no providers registered")
	}

	r := &Registry{byID: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		id := p.ID()
		if id == "" {
			return nil, fmt.Errorf("provider %q has an empty id", p.DisplayName())
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", id)
		}
		r.byID[id] = p
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// All returns the providers in registration order.
func (r *Registry) All() []Provider {
	return r.providers
}

// IDs returns the registered provider ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		ids = append(ids, p.ID())
	}
	return ids
}

// Enabled returns the providers in registration order filtered to the
// given id set. An empty set enables every registered provider;
// unknown ids are ignored.
func (r *Registry) Enabled(ids []string) []Provider {
	if len(ids) == 0 {
		return r.providers
	}

	enabled := make(map[string]bool, len(ids))
	for _, id := range ids {
		enabled[id] = true
	}

	var out []Provider
	for _, p := range r.providers {
		if enabled[p.ID()] {
			out = append(out, p)
		}
	}
	return out
}
