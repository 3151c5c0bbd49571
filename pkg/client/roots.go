package client

import "github.com/richard-senior/mcp/pkg/protocol"

// RootsRegistry is the set of filesystem/URI roots a client exposes to
// connected servers, answered via roots/list and changeable at runtime
// with Add and Remove. Neither emits notifications/roots/list_changed.
type RootsRegistry struct {
	roots []protocol.Root
}

// NewRootsRegistry builds an empty registry.
func NewRootsRegistry() *RootsRegistry {
	return &RootsRegistry{}
}

// Add registers a root.
func (r *RootsRegistry) Add(uri, name string) {
	r.roots = append(r.roots, protocol.Root{URI: uri, Name: name})
}

// Remove drops every root matching uri.
func (r *RootsRegistry) Remove(uri string) {
	kept := r.roots[:0]
	for _, root := range r.roots {
		if root.URI != uri {
			kept = append(kept, root)
		}
	}
	r.roots = kept
}

// List returns the currently registered roots.
func (r *RootsRegistry) List() []protocol.Root {
	return r.roots
}

// Empty reports whether no roots are registered, used to decide whether
// to advertise the roots capability during initialize.
func (r *RootsRegistry) Empty() bool {
	return len(r.roots) == 0
}
