// SPDX-License-Identifier: MPL-2.0

package savepattern

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RootSystemDrive is the emulated C: drive of the instance.
	RootSystemDrive Root = "SystemDrive"
	// RootUserProfile is the emulated user profile directory.
	RootUserProfile Root = "UserProfile"
	// RootUserDocuments is the "Documents" folder of the emulated user.
	RootUserDocuments Root = "UserDocuments"
	// RootAppDataLocal is AppData\Local of the emulated user.
	RootAppDataLocal Root = "AppDataLocal"
	// RootAppDataLocalLow is AppData\LocalLow of the emulated user.
	RootAppDataLocalLow Root = "AppDataLocalLow"
	// RootAppDataRoaming is AppData\Roaming of the emulated user.
	RootAppDataRoaming Root = "AppDataRoaming"
	// RootSavedGames is the "Saved Games" folder of the emulated user.
	RootSavedGames Root = "SavedGames"
	// RootProgramData is the machine-wide ProgramData directory.
	RootProgramData Root = "ProgramData"
	// RootGameInstall is the install directory of the application itself.
	RootGameInstall Root = "GameInstall"
	// RootSteamUserData is the Steam client's per-account userdata directory.
	RootSteamUserData Root = "SteamUserData"
	// RootExternalStorage is the host external storage directory.
	RootExternalStorage Root = "ExternalStorage"
)

// ErrInvalidRoot is the sentinel error wrapped by InvalidRootError.
var ErrInvalidRoot = errors.New("invalid save root")

type (
	// Root identifies a virtualized filesystem anchor. The set of values is
	// closed; see Roots for the full list.
	Root string

	// InvalidRootError is returned when a Root value is not recognized.
	// It wraps ErrInvalidRoot for errors.Is() compatibility.
	InvalidRootError struct {
		Value Root
	}
)

var (
	allRoots = []Root{
		RootSystemDrive,
		RootUserProfile,
		RootUserDocuments,
		RootAppDataLocal,
		RootAppDataLocalLow,
		RootAppDataRoaming,
		RootSavedGames,
		RootProgramData,
		RootGameInstall,
		RootSteamUserData,
		RootExternalStorage,
	}

	// legacyRootNames maps the root names found in older manifests (keyed
	// lowercase) onto the canonical set.
	legacyRootNames = map[string]Root{
		"root":               RootSystemDrive,
		"winmydocuments":     RootUserDocuments,
		"winappdatalocal":    RootAppDataLocal,
		"winappdatalocallow": RootAppDataLocalLow,
		"winappdataroaming":  RootAppDataRoaming,
		"winsavedgames":      RootSavedGames,
		"winprogramdata":     RootProgramData,
	}
)

// Roots returns every Root value in declaration order.
func Roots() []Root {
	out := make([]Root, len(allRoots))
	copy(out, allRoots)
	return out
}

// ParseRoot converts a manifest root name into a Root. Matching is
// case-insensitive and accepts the legacy Win* names.
func ParseRoot(name string) (Root, error) {
	trimmed := strings.TrimSpace(name)
	for _, r := range allRoots {
		if strings.EqualFold(trimmed, string(r)) {
			return r, nil
		}
	}
	if r, ok := legacyRootNames[strings.ToLower(trimmed)]; ok {
		return r, nil
	}
	return "", &InvalidRootError{Value: Root(name)}
}

// String returns the string representation of the Root.
func (r Root) String() string { return string(r) }

// IsValid returns whether the Root is one of the defined roots,
// and a list of validation errors if it is not.
func (r Root) IsValid() (bool, []error) {
	for _, known := range allRoots {
		if r == known {
			return true, nil
		}
	}
	return false, []error{&InvalidRootError{Value: r}}
}

// Error implements the error interface for InvalidRootError.
func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid save root %q", e.Value)
}

// Unwrap returns ErrInvalidRoot for errors.Is() compatibility.
func (e *InvalidRootError) Unwrap() error { return ErrInvalidRoot }
