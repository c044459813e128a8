// SPDX-License-Identifier: MPL-2.0

// Package savepattern models declarative save-data locations and resolves them
// against the active compatibility-layer instance and the signed-in account.
//
// A SavePattern names a symbolic Root, a path template and a glob-style match
// expression. Resolution is pure string work:
//
//	resolvedPrefix = Registry.Lookup(root) + Substitute(pathTemplate, identity)
//
// Nothing in this package touches the filesystem; enumeration of the files
// under a resolved prefix lives in internal/matcher.
//
// Shared mutable state is limited to two atomic pointers: the active RootMap
// held by Registry and the signed-in Identity held by Session. Both are swapped
// wholesale, so concurrent readers see either the previous or the next value.
package savepattern
