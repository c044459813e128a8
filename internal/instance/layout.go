// SPDX-License-Identifier: MPL-2.0

package instance

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/saveloc/saveloc/pkg/savepattern"
)

const (
	// DefaultWineUser is the Windows user name inside image-filesystem prefixes.
	DefaultWineUser = "xuser"
	// ProtonWineUser is the Windows user name inside Proton prefixes.
	ProtonWineUser = "steamuser"
)

// ErrInvalidLayout is the sentinel error wrapped by InvalidLayoutError.
var ErrInvalidLayout = errors.New("invalid instance layout")

type (
	// Layout locates one instance on the host. Either ImageFS or WinePrefix
	// must be set; WinePrefix wins when both are.
	Layout struct {
		// ImageFS is the image filesystem root holding the per-container homes.
		ImageFS string
		// ContainerID selects the home directory <wineuser>-<id>. Empty
		// selects the shared <wineuser> home.
		ContainerID string
		// WineUser is the Windows user name. Defaults to DefaultWineUser.
		WineUser string
		// WinePrefix is an explicit Wine prefix (the directory holding drive_c).
		WinePrefix string
		// GameInstall is the application install directory. Defaults to
		// drive_c/Program Files.
		GameInstall string
		// ExternalStorage is the host external storage directory. Defaults to
		// <ImageFS>/storage, or the prefix's parent for a bare WinePrefix.
		ExternalStorage string
		// SteamUserData overrides the Steam userdata directory, which
		// otherwise lives inside drive_c.
		SteamUserData string
	}

	// InvalidLayoutError collects the field errors of a Layout. It wraps
	// ErrInvalidLayout for errors.Is() compatibility.
	InvalidLayoutError struct {
		FieldErrors []error
	}
)

// Name identifies the instance in logs and error messages.
func (l Layout) Name() string {
	switch {
	case l.WinePrefix != "":
		return "prefix:" + l.WinePrefix
	case l.ContainerID != "":
		return "container:" + l.ContainerID
	default:
		return "imagefs:" + l.ImageFS
	}
}

// Home returns the Unix home directory of the Wine user, or "" for a layout
// given as a bare WinePrefix.
func (l Layout) Home() string {
	if l.WinePrefix != "" {
		return ""
	}
	dir := l.wineUser()
	if l.ContainerID != "" {
		dir += "-" + l.ContainerID
	}
	return filepath.Join(l.ImageFS, "home", dir)
}

// Prefix returns the Wine prefix directory.
func (l Layout) Prefix() string {
	if l.WinePrefix != "" {
		return filepath.Clean(l.WinePrefix)
	}
	return filepath.Join(l.Home(), ".wine")
}

// DriveC returns the directory backing C:.
func (l Layout) DriveC() string {
	return filepath.Join(l.Prefix(), "drive_c")
}

// Profile returns the Windows user profile directory.
func (l Layout) Profile() string {
	return filepath.Join(l.DriveC(), "users", l.wineUser())
}

// RootMap maps every savepattern.Root into this instance.
func (l Layout) RootMap() (*savepattern.RootMap, error) {
	if valid, errs := l.IsValid(); !valid {
		return nil, errs[0]
	}

	driveC := l.DriveC()
	profile := l.Profile()
	prefixes := map[savepattern.Root]string{
		savepattern.RootSystemDrive:     driveC,
		savepattern.RootUserProfile:     profile,
		savepattern.RootUserDocuments:   filepath.Join(profile, "Documents"),
		savepattern.RootAppDataLocal:    filepath.Join(profile, "AppData", "Local"),
		savepattern.RootAppDataLocalLow: filepath.Join(profile, "AppData", "LocalLow"),
		savepattern.RootAppDataRoaming:  filepath.Join(profile, "AppData", "Roaming"),
		savepattern.RootSavedGames:      filepath.Join(profile, "Saved Games"),
		savepattern.RootProgramData:     filepath.Join(driveC, "ProgramData"),
		savepattern.RootGameInstall:     l.orDefault(l.GameInstall, filepath.Join(driveC, "Program Files")),
		savepattern.RootSteamUserData:   l.orDefault(l.SteamUserData, filepath.Join(driveC, "Program Files (x86)", "Steam", "userdata")),
		savepattern.RootExternalStorage: l.orDefault(l.ExternalStorage, l.defaultExternalStorage()),
	}
	return savepattern.NewRootMap(l.Name(), prefixes), nil
}

// IsValid returns whether the Layout has valid fields.
func (l Layout) IsValid() (bool, []error) {
	var errs []error

	switch {
	case l.WinePrefix != "":
		if !filepath.IsAbs(l.WinePrefix) {
			errs = append(errs, fmt.Errorf("wine prefix %q must be an absolute path", l.WinePrefix))
		}
	case l.ImageFS == "":
		errs = append(errs, errors.New("either an image filesystem or a wine prefix is required"))
	case !filepath.IsAbs(l.ImageFS):
		errs = append(errs, fmt.Errorf("image filesystem %q must be an absolute path", l.ImageFS))
	}

	if strings.ContainsAny(l.ContainerID, `/\`) || strings.TrimSpace(l.ContainerID) != l.ContainerID {
		errs = append(errs, fmt.Errorf("container id %q must not contain separators or surrounding spaces", l.ContainerID))
	}
	if l.WineUser != "" && (strings.ContainsAny(l.WineUser, `/\`) || l.WineUser == "." || l.WineUser == "..") {
		errs = append(errs, fmt.Errorf("wine user %q is not a valid user name", l.WineUser))
	}
	for _, dir := range []struct{ name, path string }{
		{"game install", l.GameInstall},
		{"external storage", l.ExternalStorage},
		{"steam userdata", l.SteamUserData},
	} {
		if dir.path != "" && !filepath.IsAbs(dir.path) {
			errs = append(errs, fmt.Errorf("%s %q must be an absolute path", dir.name, dir.path))
		}
	}

	if len(errs) > 0 {
		return false, []error{&InvalidLayoutError{FieldErrors: errs}}
	}
	return true, nil
}

func (l Layout) wineUser() string {
	if l.WineUser == "" {
		return DefaultWineUser
	}
	return l.WineUser
}

func (l Layout) defaultExternalStorage() string {
	if l.WinePrefix != "" {
		return filepath.Dir(l.Prefix())
	}
	return filepath.Join(l.ImageFS, "storage")
}

func (Layout) orDefault(value, def string) string {
	if value != "" {
		return filepath.Clean(value)
	}
	return def
}

// Error implements the error interface for InvalidLayoutError.
func (e *InvalidLayoutError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid instance layout: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidLayout for errors.Is() compatibility.
func (e *InvalidLayoutError) Unwrap() error { return ErrInvalidLayout }
