// SPDX-License-Identifier: MPL-2.0

package savepattern

import (
	"fmt"
	"path/filepath"
	"strings"
)

type (
	// Resolver turns a SavePattern into a concrete directory for the current
	// account and instance. Both collaborators are passed explicitly; there is
	// no package-level state.
	Resolver struct {
		Roots    RootLookup
		Identity IdentityProvider
	}

	// ResolveError records which pattern failed to resolve. It unwraps to the
	// underlying cause (ErrNoIdentity or ErrNoActiveInstance).
	ResolveError struct {
		Pattern SavePattern
		Err     error
	}
)

// NewResolver creates a Resolver.
func NewResolver(roots RootLookup, identity IdentityProvider) *Resolver {
	return &Resolver{Roots: roots, Identity: identity}
}

// Resolve returns the absolute directory p points at. The account is read
// first, then the root prefix; both are read fresh on every call.
func (r *Resolver) Resolve(p SavePattern) (string, error) {
	sub, err := r.SubstitutedPath(p)
	if err != nil {
		return "", err
	}

	if r.Roots == nil {
		return "", &ResolveError{Pattern: p, Err: ErrNoActiveInstance}
	}
	prefix, err := r.Roots.Lookup(p.Root)
	if err != nil {
		return "", &ResolveError{Pattern: p, Err: err}
	}

	return JoinPrefix(prefix, sub), nil
}

// SubstitutedPath returns the root-relative template of p with account
// tokens replaced for the current identity.
func (r *Resolver) SubstitutedPath(p SavePattern) (string, error) {
	if r.Identity == nil {
		return "", &ResolveError{Pattern: p, Err: ErrNoIdentity}
	}
	id, err := r.Identity.Current()
	if err != nil {
		return "", &ResolveError{Pattern: p, Err: err}
	}
	return p.SubstitutedPath(id), nil
}

// JoinPrefix appends a root-relative template path to an absolute prefix with
// exactly one separator between them. Template paths may use either slash
// style; repeated separators inside the template are collapsed.
func JoinPrefix(prefix, rel string) string {
	rel = strings.ReplaceAll(rel, `\`, "/")
	segments := strings.FieldsFunc(rel, func(c rune) bool { return c == '/' })

	// A bare "/" prefix trims to "", which the joins below turn back into "/".
	base := strings.TrimRight(filepath.ToSlash(prefix), "/")
	if len(segments) == 0 {
		if base == "" {
			return filepath.FromSlash("/")
		}
		return filepath.FromSlash(base)
	}
	return filepath.FromSlash(base + "/" + strings.Join(segments, "/"))
}

// Error implements the error interface for ResolveError.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResolveError) Unwrap() error { return e.Err }
