// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE (and JSON, which is valid CUE) documents into Go
// values after unifying them with an embedded schema definition.
//
// Both the configuration file and save manifests go through ParseAndDecode:
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseAndDecode[manifestFile](schema, data, "#Manifest",
//	    cueutil.WithFilename(path))
//
// Errors carry the file name and the JSON-style path of the offending field,
// e.g. "games.cue: apps.game.patterns[0].root: incomplete value".
package cueutil
