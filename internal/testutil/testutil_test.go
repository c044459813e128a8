// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"a/b/slot.sav": "data",
		"empty/":       "",
		"top.txt":      "",
	})

	data, err := os.ReadFile(filepath.Join(root, "a", "b", "slot.sav"))
	if err != nil || string(data) != "data" {
		t.Errorf("slot.sav = %q, %v; want %q", data, err, "data")
	}
	if info, err := os.Stat(filepath.Join(root, "empty")); err != nil || !info.IsDir() {
		t.Errorf("empty/ should be a directory: %v", err)
	}
	if info, err := os.Stat(filepath.Join(root, "top.txt")); err != nil || info.Size() != 0 {
		t.Errorf("top.txt should be an empty file: %v", err)
	}
}

func TestMustSetenv_Restores(t *testing.T) {
	const key = "SAVELOC_TESTUTIL_PROBE"

	restore := MustSetenv(t, key, "first")
	if got := os.Getenv(key); got != "first" {
		t.Fatalf("%s = %q, want first", key, got)
	}
	inner := MustSetenv(t, key, "second")
	inner()
	if got := os.Getenv(key); got != "first" {
		t.Errorf("after inner restore %s = %q, want first", key, got)
	}
	restore()
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s should be unset after restore", key)
	}
}

func TestSetHomeDir(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(SetHomeDir(t, dir))

	key := "HOME"
	if runtime.GOOS == "windows" {
		key = "USERPROFILE"
	}
	if got := os.Getenv(key); got != dir {
		t.Errorf("%s = %q, want %q", key, got, dir)
	}
	if got, err := os.UserHomeDir(); err != nil || got != dir {
		t.Errorf("os.UserHomeDir() = %q, %v; want %q", got, err, dir)
	}
}
