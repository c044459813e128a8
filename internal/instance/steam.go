// SPDX-License-Identifier: MPL-2.0

package instance

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// ErrSteamNotFound is returned when no host Steam installation is found.
var ErrSteamNotFound = errors.New("steam installation not found")

// DetectSteamRoot returns the host Steam installation directory.
func DetectSteamRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return detectSteamRoot(steamRootCandidates(runtime.GOOS, home, os.Getenv))
}

// steamRootCandidates lists the usual Steam locations for goos in order of
// preference. Unset environment variables contribute no candidate.
func steamRootCandidates(goos, home string, getenv func(string) string) []string {
	switch goos {
	case "windows":
		var out []string
		for _, name := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
			if dir := getenv(name); dir != "" {
				out = append(out, filepath.Join(dir, "Steam"))
			}
		}
		return out
	case "darwin":
		return []string{filepath.Join(home, "Library", "Application Support", "Steam")}
	default:
		return []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".steam", "steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", "data", "Steam"),
		}
	}
}

func detectSteamRoot(candidates []string) (string, error) {
	for _, dir := range candidates {
		if !filepath.IsAbs(dir) {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", ErrSteamNotFound
}

// FromProtonPrefix returns the layout of the Proton prefix Steam created for
// appID. Steam's userdata directory lives on the host, next to steamapps.
func FromProtonPrefix(steamRoot, appID string) Layout {
	return Layout{
		WinePrefix:    filepath.Join(steamRoot, "steamapps", "compatdata", appID, "pfx"),
		WineUser:      ProtonWineUser,
		SteamUserData: filepath.Join(steamRoot, "userdata"),
	}
}
