// SPDX-License-Identifier: MPL-2.0

package instance

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/saveloc/saveloc/internal/testutil"
)

func TestDetectSteamRoot_Preference(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	candidates := steamRootCandidates("linux", home, os.Getenv)

	if _, err := detectSteamRoot(candidates); !errors.Is(err, ErrSteamNotFound) {
		t.Fatalf("detectSteamRoot() with nothing installed error = %v, want ErrSteamNotFound", err)
	}

	flatpak := filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".steam", "steam")
	testutil.MustMkdirAll(t, flatpak)
	if got, err := detectSteamRoot(candidates); err != nil || got != flatpak {
		t.Errorf("detectSteamRoot() = %q, %v, want %q", got, err, flatpak)
	}

	native := filepath.Join(home, ".local", "share", "Steam")
	testutil.MustMkdirAll(t, native)
	if got, _ := detectSteamRoot(candidates); got != native {
		t.Errorf("detectSteamRoot() = %q, want the native install %q", got, native)
	}

	// A regular file where a directory is expected is ignored.
	testutil.MustWriteFile(t, filepath.Join(home, ".steam", "steam"), "")
	if got, _ := detectSteamRoot(candidates); got != native {
		t.Errorf("detectSteamRoot() = %q, want %q", got, native)
	}
}

func TestDetectSteamRoot_UsesHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Windows installs are located through ProgramFiles")
	}

	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))
	want := steamRootCandidates(runtime.GOOS, home, os.Getenv)[0]
	testutil.MustMkdirAll(t, want)

	got, err := DetectSteamRoot()
	if err != nil || got != want {
		t.Errorf("DetectSteamRoot() = %q, %v, want %q", got, err, want)
	}
}

func TestSteamRootCandidates_Windows(t *testing.T) {
	t.Parallel()

	unset := func(string) string { return "" }
	if got := steamRootCandidates("windows", `C:\Users\x`, unset); len(got) != 0 {
		t.Errorf("steamRootCandidates() without ProgramFiles = %v, want none", got)
	}

	env := map[string]string{"ProgramFiles": `C:\Program Files`}
	got := steamRootCandidates("windows", `C:\Users\x`, func(k string) string { return env[k] })
	if want := []string{filepath.Join(`C:\Program Files`, "Steam")}; len(got) != 1 || got[0] != want[0] {
		t.Errorf("steamRootCandidates() = %v, want %v", got, want)
	}
}

func TestDetectSteamRoot_IgnoresRelativeCandidates(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	testutil.MustMkdirAll(t, filepath.Join(dir, "Steam"))

	if got, err := detectSteamRoot([]string{"Steam"}); !errors.Is(err, ErrSteamNotFound) {
		t.Errorf("detectSteamRoot(relative) = %q, %v, want ErrSteamNotFound", got, err)
	}
}

func TestFromProtonPrefix(t *testing.T) {
	t.Parallel()

	steam := filepath.Join(t.TempDir(), "Steam")
	layout := FromProtonPrefix(steam, "620")

	if want := filepath.Join(steam, "steamapps", "compatdata", "620", "pfx", "drive_c", "users", "steamuser"); layout.Profile() != want {
		t.Errorf("Profile() = %q, want %q", layout.Profile(), want)
	}
	roots, err := layout.RootMap()
	if err != nil {
		t.Fatalf("RootMap() error: %v", err)
	}
	if got, _ := roots.Lookup("SteamUserData"); got != filepath.Join(steam, "userdata") {
		t.Errorf("SteamUserData = %q, want host userdata", got)
	}
	if got, _ := roots.Lookup("ExternalStorage"); got != filepath.Join(steam, "steamapps", "compatdata", "620") {
		t.Errorf("ExternalStorage = %q", got)
	}
}
