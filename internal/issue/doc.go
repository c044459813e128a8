// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the saveloc CLI and a catalog
// of Markdown help pages, one per diagnostic code, rendered with glamour by
// 'saveloc explain'.
package issue
