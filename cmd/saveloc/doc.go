// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for saveloc.
//
// This package implements the Cobra command hierarchy: locate, resolve, apps,
// roots, watch, explain and config. Every handler receives an App, which
// loads configuration and manifests and wires the resolver for one
// invocation.
package cmd
