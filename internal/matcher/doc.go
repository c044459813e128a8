// SPDX-License-Identifier: MPL-2.0

// Package matcher enumerates the files under a resolved save directory that
// satisfy a glob-style match expression.
//
// Expressions use doublestar semantics against slash-separated paths relative
// to the directory: "*" stays within one segment, "**" crosses segments and
// "?" matches one character. A missing or unreadable directory yields no
// matches rather than an error, since most applications have never saved.
//
// This is the only package of the engine that performs filesystem I/O. Scans
// block and should run off latency-sensitive goroutines.
package matcher
