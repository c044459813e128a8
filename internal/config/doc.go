// SPDX-License-Identifier: MPL-2.0

// Package config handles saveloc configuration using Viper with CUE as the
// file format.
//
// The file is config.cue in the platform configuration directory
// ($XDG_CONFIG_HOME/saveloc on Linux, ~/Library/Application Support/saveloc on
// macOS, %APPDATA%\saveloc on Windows), or config.cue in the working directory,
// or the path given with --config. It is validated against the embedded
// #Config schema before being merged over the defaults. SAVELOC_* environment
// variables override file values, e.g. SAVELOC_INSTANCE_CONTAINER_ID.
package config
