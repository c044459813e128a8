// SPDX-License-Identifier: MPL-2.0

// Package catalog holds, per application, the ordered save patterns to try.
//
// The catalog itself is inert data. It is filled from manifest files in one of
// three formats, all validated against the same shape:
//   - CUE (*.cue), unified with the embedded #Manifest schema
//   - JSON (*.json), compiled by the CUE evaluator since JSON is valid CUE
//   - TOML (*.toml), decoded with go-toml and checked by the Go-side rules
//
// Root names are normalized through savepattern.ParseRoot, so manifests may
// use the legacy Win* root names. Match expressions are not checked here: a
// bad expression only disables its own pattern at locate time.
package catalog
