// Package entity defines the optional entity-resolution interface consumed
// by the memory engine.
//
// Resolution maps an entity name to an internal identifier for
// cross-referencing in the feedback log. When no resolver is available or
// resolution fails, the engine uses the UnknownID sentinel rather than
// failing the operation.
package entity

import "context"

// UnknownID is the sentinel identifier used when an entity cannot be
// resolved.
const UnknownID = "unknown"

// Resolver maps entity names to internal identifiers.
type Resolver interface {
	// Resolve returns the internal identifier for an entity name.
	// Implementations return UnknownID with a nil error for entities they
	// do not know.
	Resolve(ctx context.Context, entityName string) (string, error)
}

// StaticResolver resolves from a fixed in-memory mapping. Useful for hosts
// with a small entity catalog and for tests.
type StaticResolver struct {
	ids map[string]string
}

// NewStaticResolver creates a resolver over the given name-to-id mapping.
func NewStaticResolver(ids map[string]string) *StaticResolver {
	return &StaticResolver{ids: ids}
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, entityName string) (string, error) {
	if id, ok := r.ids[entityName]; ok {
		return id, nil
	}
	return UnknownID, nil
}

// UnknownResolver resolves every entity to the UnknownID sentinel. It is the
// default when the host provides no resolver.
type UnknownResolver struct{}

// Resolve implements Resolver.
func (UnknownResolver) Resolve(context.Context, string) (string, error) {
	return UnknownID, nil
}
