// SPDX-License-Identifier: MPL-2.0

// Package locator aggregates the save files of one application across all of
// its catalog patterns.
//
// Each pattern is resolved against the active instance and the current
// account, then matched on disk. Patterns that cannot be resolved or whose
// match expression is malformed are skipped and reported as Diagnostics; they
// never fail the whole lookup.
package locator
