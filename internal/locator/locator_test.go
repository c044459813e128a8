// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/saveloc/saveloc/internal/catalog"
	"github.com/saveloc/saveloc/internal/testutil"
	"github.com/saveloc/saveloc/pkg/savepattern"
)

const (
	accountA uint64 = 76561198000000000 // id32 39734272
	accountB uint64 = 76561197960265729 // id32 1
)

type fixture struct {
	dir      string
	registry *savepattern.Registry
	session  *savepattern.Session
	catalog  *catalog.Catalog
	locator  *Locator
}

func newFixture(t *testing.T, patterns ...savepattern.SavePattern) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		registry: &savepattern.Registry{},
		session:  &savepattern.Session{},
		catalog:  catalog.New(),
	}
	f.registry.Activate(savepattern.NewRootMap("test", map[savepattern.Root]string{
		savepattern.RootUserDocuments: filepath.Join(dir, "docs"),
		savepattern.RootSteamUserData: filepath.Join(dir, "userdata"),
		savepattern.RootProgramData:   filepath.Join(dir, "programdata"),
	}))
	if err := f.catalog.Add(catalog.App{ID: "620", Patterns: patterns}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	f.locator = &Locator{
		Catalog:  f.catalog,
		Resolver: savepattern.NewResolver(f.registry, f.session),
	}
	return f
}

func paths(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func codes(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestLocate_OverlappingPatternsDeduplicated(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Path: "Game", Pattern: "**/*.sav"},
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Path: "Game", Pattern: "slot*.sav"},
		savepattern.SavePattern{Root: savepattern.RootProgramData, Pattern: "*.ini"},
	)
	f.session.SignIn(accountA)
	testutil.WriteTree(t, f.dir, map[string]string{
		"docs/Game/slot1.sav":      "1234",
		"docs/Game/slot2.sav":      "12",
		"docs/Game/auto/a.sav":     "1",
		"docs/Game/readme.txt":     "ignored",
		"programdata/settings.ini": "123",
	})

	res, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}

	want := []string{
		filepath.Join(f.dir, "docs", "Game", "auto", "a.sav"),
		filepath.Join(f.dir, "docs", "Game", "slot1.sav"),
		filepath.Join(f.dir, "docs", "Game", "slot2.sav"),
		filepath.Join(f.dir, "programdata", "settings.ini"),
	}
	if !slices.Equal(paths(res.Files), want) {
		t.Errorf("Files = %v, want %v", paths(res.Files), want)
	}
	if res.TotalSize != 10 {
		t.Errorf("TotalSize = %d, want 10", res.TotalSize)
	}
	for _, file := range res.Files {
		if filepath.Base(file.Path) == "slot1.sav" && file.PatternIndex != 0 {
			t.Errorf("slot1.sav attributed to pattern %d, want 0", file.PatternIndex)
		}
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
}

func TestLocate_DirectoryAliasCountedOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Pattern: "**/*.sav"},
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Path: "My Documents/Game", Pattern: "*.sav"},
	)
	f.session.SignIn(accountA)
	testutil.WriteTree(t, f.dir, map[string]string{
		"docs/Documents/Game/slot1.sav": string(make([]byte, 1000)),
	})
	testutil.MustSymlink(t, filepath.Join(f.dir, "docs", "Documents"), filepath.Join(f.dir, "docs", "My Documents"))

	res, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}

	want := []string{filepath.Join(f.dir, "docs", "Documents", "Game", "slot1.sav")}
	if !slices.Equal(paths(res.Files), want) {
		t.Errorf("Files = %v, want %v", paths(res.Files), want)
	}
	if res.TotalSize != 1000 {
		t.Errorf("TotalSize = %d, want 1000", res.TotalSize)
	}
}

func TestLocate_SkipsFailingPatterns(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Path: "Game", Pattern: "[a-"},
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Path: "Game", Pattern: "*.sav"},
		savepattern.SavePattern{Root: savepattern.RootGameInstall, Path: "saves", Pattern: "*"},
	)
	f.session.SignIn(accountA)
	testutil.WriteTree(t, f.dir, map[string]string{"docs/Game/ok.sav": "x"})

	res, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].PatternIndex != 1 {
		t.Errorf("Files = %+v, want ok.sav from pattern 1", res.Files)
	}
	if want := []string{CodeMalformedExpression, CodeNoActiveInstance}; !slices.Equal(codes(res.Diagnostics), want) {
		t.Errorf("Diagnostics = %v, want %v", codes(res.Diagnostics), want)
	}
	if d := res.Diagnostics[0]; d.PatternIndex != 0 || d.Path != filepath.Join(f.dir, "docs", "Game") {
		t.Errorf("malformed diagnostic = %+v", d)
	}
	if !errors.Is(res.Diagnostics[1].Cause, savepattern.ErrNoActiveInstance) {
		t.Errorf("unmapped root diagnostic cause = %v", res.Diagnostics[1].Cause)
	}
}

func TestLocate_NoIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		savepattern.SavePattern{Root: savepattern.RootSteamUserData, Path: "{AccountId32}/620", Pattern: "**"},
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Pattern: "*.sav"},
	)
	testutil.WriteTree(t, f.dir, map[string]string{"docs/a.sav": ""})

	res, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if want := []string{CodeNoIdentity, CodeNoIdentity}; !slices.Equal(codes(res.Diagnostics), want) {
		t.Errorf("Diagnostics = %v, want %v", codes(res.Diagnostics), want)
	}
	if len(res.Files) != 0 {
		t.Errorf("Files = %v, want none without identity", res.Files)
	}
}

func TestLocate_NoActiveInstance(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Pattern: "*"},
		savepattern.SavePattern{Root: savepattern.RootProgramData, Path: "x", Pattern: "*"},
	)
	f.session.SignIn(accountA)
	f.registry.Deactivate()

	res, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if want := []string{CodeNoActiveInstance, CodeNoActiveInstance}; !slices.Equal(codes(res.Diagnostics), want) {
		t.Errorf("Diagnostics = %v, want %v", codes(res.Diagnostics), want)
	}
}

func TestLocate_AccountSwitch(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		savepattern.SavePattern{Root: savepattern.RootSteamUserData, Path: "{AccountId32}/620/remote", Pattern: "*.sav"},
	)
	testutil.WriteTree(t, f.dir, map[string]string{
		"userdata/39734272/620/remote/a.sav": "",
		"userdata/1/620/remote/b.sav":        "",
	})

	f.session.SignIn(accountA)
	first, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	f.session.SignIn(accountB)
	second, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}

	if len(first.Files) != 1 || first.Files[0].Rel != "a.sav" {
		t.Errorf("account A files = %+v", first.Files)
	}
	if len(second.Files) != 1 || second.Files[0].Rel != "b.sav" {
		t.Errorf("account B files = %+v", second.Files)
	}
}

func TestLocate_MissingPrefixIsNotADiagnostic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, savepattern.SavePattern{Root: savepattern.RootUserDocuments, Path: "Never Played", Pattern: "**"})
	f.session.SignIn(accountA)

	res, err := f.locator.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if len(res.Files) != 0 || len(res.Diagnostics) != 0 {
		t.Errorf("Locate() = %+v, want empty result", res)
	}
}

func TestLocate_UnknownApp(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.locator.Locate(t.Context(), "999")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if want := []string{CodeUnknownApp}; !slices.Equal(codes(res.Diagnostics), want) {
		t.Errorf("Diagnostics = %v, want %v", codes(res.Diagnostics), want)
	}
	if res.Diagnostics[0].PatternIndex != -1 {
		t.Errorf("PatternIndex = %d, want -1", res.Diagnostics[0].PatternIndex)
	}
}

func TestLocate_Cancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, savepattern.SavePattern{Root: savepattern.RootUserDocuments, Pattern: "**"})
	f.session.SignIn(accountA)
	testutil.WriteTree(t, f.dir, map[string]string{"docs/a.sav": "", "docs/b.sav": ""})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := f.locator.Locate(ctx, "620")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Locate() error = %v, want context.Canceled", err)
	}
	if res == nil || res.AppID != "620" {
		t.Errorf("Locate() should return the partial result, got %+v", res)
	}
}

func TestLocate_ConcurrencyDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	var patterns []savepattern.SavePattern
	for _, expr := range []string{"*.sav", "**/*.sav", "a*", "b/*", "**"} {
		patterns = append(patterns, savepattern.SavePattern{Root: savepattern.RootUserDocuments, Pattern: expr})
	}
	f := newFixture(t, patterns...)
	f.session.SignIn(accountA)
	testutil.WriteTree(t, f.dir, map[string]string{
		"docs/a.sav": "1", "docs/b/c.sav": "22", "docs/b/d.txt": "333", "docs/e.sav": "4444",
	})

	serial := *f.locator
	serial.Concurrency = 1
	want, err := serial.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}

	parallel := *f.locator
	parallel.Concurrency = 8
	got, err := parallel.Locate(t.Context(), "620")
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}

	if !slices.Equal(got.Files, want.Files) || got.TotalSize != want.TotalSize || want.TotalSize != 10 {
		t.Errorf("parallel result %+v differs from serial %+v", got, want)
	}
}

func TestPrefixes(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		savepattern.SavePattern{Root: savepattern.RootSteamUserData, Path: `{AccountId32}\620\remote`, Pattern: "*"},
		savepattern.SavePattern{Root: savepattern.RootUserDocuments, Pattern: ""},
		savepattern.SavePattern{Root: savepattern.RootSavedGames, Pattern: "*"},
	)
	f.session.SignIn(accountA)

	prefixes, diags := f.locator.Prefixes("620")
	if len(prefixes) != 3 {
		t.Fatalf("Prefixes() returned %d entries, want 3", len(prefixes))
	}
	if want := filepath.Join(f.dir, "userdata", "39734272", "620", "remote"); prefixes[0].Path != want || prefixes[0].Diagnostic != nil {
		t.Errorf("prefix[0] = %+v, want %s", prefixes[0], want)
	}
	if d := prefixes[1].Diagnostic; d == nil || d.Code != CodeMalformedExpression || prefixes[1].Path == "" {
		t.Errorf("prefix[1] = %+v, want malformed expression with path", prefixes[1])
	}
	if d := prefixes[2].Diagnostic; d == nil || d.Code != CodeNoActiveInstance || prefixes[2].Path != "" {
		t.Errorf("prefix[2] = %+v, want no_active_instance", prefixes[2])
	}
	if want := []string{CodeMalformedExpression, CodeNoActiveInstance}; !slices.Equal(codes(diags), want) {
		t.Errorf("diagnostics = %v, want %v", codes(diags), want)
	}

	if _, diags := f.locator.Prefixes("nope"); len(diags) != 1 || diags[0].Code != CodeUnknownApp {
		t.Errorf("Prefixes(unknown) diagnostics = %v", diags)
	}
}
