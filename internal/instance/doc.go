// SPDX-License-Identifier: MPL-2.0

// Package instance describes where a compatibility-layer instance keeps its
// Windows filesystem on the host and turns that description into the
// savepattern.RootMap consumed by the resolver.
//
// Two layouts are supported. An image-filesystem instance keeps one home
// directory per container:
//
//	<imagefs>/home/<wineuser>-<container>/.wine/drive_c
//
// A Proton instance keeps a prefix per application under the host Steam
// installation:
//
//	<steam>/steamapps/compatdata/<appid>/pfx/drive_c
package instance
