// SPDX-License-Identifier: MPL-2.0

package savepattern

import (
	"errors"
	"fmt"
	"maps"
	"sync/atomic"
)

// ErrNoActiveInstance is returned when no compatibility-layer instance is
// active, so symbolic roots cannot be anchored.
var ErrNoActiveInstance = errors.New("no active compatibility instance")

type (
	// RootLookup maps a Root to the absolute prefix currently in effect.
	RootLookup interface {
		Lookup(root Root) (string, error)
	}

	// RootMap is an immutable Root to absolute prefix table for one instance.
	RootMap struct {
		name     string
		prefixes map[Root]string
	}

	// Registry holds the RootMap of the active instance. The map is replaced
	// wholesale by Activate, so Lookup never observes a partial update. The
	// zero value has no active instance.
	Registry struct {
		active atomic.Pointer[RootMap]
	}

	// UnmappedRootError is returned by a RootMap that has no entry for a root.
	// It wraps ErrNoActiveInstance: the instance cannot anchor that root.
	UnmappedRootError struct {
		Instance string
		Root     Root
	}
)

// NewRootMap copies prefixes into a new RootMap. name identifies the
// instance in error messages.
func NewRootMap(name string, prefixes map[Root]string) *RootMap {
	return &RootMap{name: name, prefixes: maps.Clone(prefixes)}
}

// Name returns the instance name the map was built for.
func (m *RootMap) Name() string { return m.name }

// Lookup implements RootLookup.
func (m *RootMap) Lookup(root Root) (string, error) {
	if m == nil {
		return "", ErrNoActiveInstance
	}
	prefix, ok := m.prefixes[root]
	if !ok {
		return "", &UnmappedRootError{Instance: m.name, Root: root}
	}
	return prefix, nil
}

// Entries returns a copy of the table.
func (m *RootMap) Entries() map[Root]string {
	return maps.Clone(m.prefixes)
}

// Activate makes m the active mapping. A nil map deactivates.
func (r *Registry) Activate(m *RootMap) {
	r.active.Store(m)
}

// Deactivate clears the active mapping.
func (r *Registry) Deactivate() {
	r.active.Store(nil)
}

// Active returns the current mapping, or nil when no instance is active.
func (r *Registry) Active() *RootMap {
	return r.active.Load()
}

// Lookup implements RootLookup against a single snapshot of the active map.
// A nil Registry has no active instance.
func (r *Registry) Lookup(root Root) (string, error) {
	if r == nil {
		return "", ErrNoActiveInstance
	}
	m := r.active.Load()
	if m == nil {
		return "", ErrNoActiveInstance
	}
	return m.Lookup(root)
}

// Error implements the error interface for UnmappedRootError.
func (e *UnmappedRootError) Error() string {
	return fmt.Sprintf("instance %q has no mapping for root %s", e.Instance, e.Root)
}

// Unwrap returns ErrNoActiveInstance for errors.Is() compatibility.
func (e *UnmappedRootError) Unwrap() error { return ErrNoActiveInstance }
