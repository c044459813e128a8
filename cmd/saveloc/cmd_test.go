// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/saveloc/saveloc/internal/testutil"
)

const (
	testSteamID = "76561197960287930"
	testID32    = "22202"
)

type (
	// fixture is a scratch instance with one manifest and a config file
	// pointing at both.
	fixture struct {
		imageFS  string
		profile  string
		manifest string
		config   string
	}

	cliRun struct {
		stdout string
		stderr string
		err    error
	}
)

const testManifest = `apps: {
	"220": {
		name: "Half-Life 2"
		patterns: [
			{root: "UserDocuments", path: "My Games/HL2/{AccountId32}", pattern: "*.sav"},
			{root: "AppDataLocal", path: "HL2", pattern: "**/*.cfg"},
			{root: "SavedGames", path: "HL2", pattern: "[broken"},
		]
	}
	"400": {
		patterns: [{root: "WinMyDocuments", path: "Portal", pattern: "*"}]
	}
}
`

func newFixture(t *testing.T, account bool) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		imageFS:  filepath.Join(dir, "imagefs"),
		manifest: filepath.Join(dir, "manifests", "games.cue"),
		config:   filepath.Join(dir, "config.cue"),
	}
	f.profile = filepath.Join(f.imageFS, "home", "xuser", ".wine", "drive_c", "users", "xuser")

	testutil.WriteTree(t, f.profile, map[string]string{
		"Documents/My Games/HL2/" + testID32 + "/slot1.sav": "12345",
		"Documents/My Games/HL2/" + testID32 + "/notes.txt": "ignored",
		"AppData/Local/HL2/cfg/config.cfg":                  "abc",
	})
	testutil.MustMkdirAll(t, filepath.Dir(f.manifest))
	testutil.MustWriteFile(t, f.manifest, testManifest)

	var cfg strings.Builder
	cfg.WriteString("instance: imagefs: " + strconv.Quote(f.imageFS) + "\n")
	if account {
		cfg.WriteString("account: steam_id: " + strconv.Quote(testSteamID) + "\n")
	}
	cfg.WriteString("manifests: [" + strconv.Quote(filepath.Dir(f.manifest)) + "]\n")
	testutil.MustWriteFile(t, f.config, cfg.String())
	return f
}

func runCLI(t *testing.T, deps Dependencies, args ...string) cliRun {
	t.Helper()

	var stdout, stderr bytes.Buffer
	deps.Stdout = &stdout
	deps.Stderr = &stderr
	app, err := NewApp(deps)
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err = root.ExecuteContext(t.Context())
	return cliRun{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestLocate_ListsMatchedFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "locate", "220")
	if run.err != nil {
		t.Fatalf("locate error: %v\nstderr: %s", run.err, run.stderr)
	}

	wantSave := filepath.Join(f.profile, "Documents", "My Games", "HL2", testID32, "slot1.sav")
	wantCfg := filepath.Join(f.profile, "AppData", "Local", "HL2", "cfg", "config.cfg")
	for _, want := range []string{wantSave, wantCfg, "2 file(s), 8 B"} {
		if !strings.Contains(run.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, run.stdout)
		}
	}
	if strings.Contains(run.stdout, "notes.txt") {
		t.Errorf("stdout lists a file the expression does not match:\n%s", run.stdout)
	}
	if !strings.Contains(run.stderr, "malformed_expression") {
		t.Errorf("stderr should warn about the broken pattern:\n%s", run.stderr)
	}
}

func TestLocate_JSON(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "locate", "--json", "220")
	if run.err != nil {
		t.Fatalf("locate --json error: %v\nstderr: %s", run.err, run.stderr)
	}

	var got locateJSON
	if err := json.Unmarshal([]byte(run.stdout), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, run.stdout)
	}
	if got.AppID != "220" || len(got.Files) != 2 || got.TotalSize != 8 {
		t.Errorf("got app %q, %d files, %d bytes; want 220, 2, 8", got.AppID, len(got.Files), got.TotalSize)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Code != "malformed_expression" || got.Diagnostics[0].Pattern != 2 {
		t.Errorf("diagnostics = %+v, want one malformed_expression on pattern 2", got.Diagnostics)
	}
}

func TestLocate_SteamIDFlag(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	run := runCLI(t, Dependencies{}, "--config", f.config, "locate", "220")
	if run.err != nil {
		t.Fatalf("locate error: %v", run.err)
	}
	if !strings.Contains(run.stderr, "no_identity") {
		t.Errorf("signed-out locate should report no_identity:\n%s", run.stderr)
	}
	if strings.Contains(run.stdout, "slot1.sav") {
		t.Errorf("signed-out locate should not find account saves:\n%s", run.stdout)
	}

	for _, id := range []string{testSteamID, testID32, "[U:1:" + testID32 + "]"} {
		run = runCLI(t, Dependencies{}, "--config", f.config, "--steam-id", id, "locate", "220")
		if run.err != nil {
			t.Fatalf("locate --steam-id %s error: %v", id, run.err)
		}
		if !strings.Contains(run.stdout, "slot1.sav") {
			t.Errorf("locate --steam-id %s should find the save:\n%s", id, run.stdout)
		}
	}

	run = runCLI(t, Dependencies{}, "--config", f.config, "--steam-id", "nope", "locate", "220")
	if exitCode(run.err) != 1 || !strings.Contains(run.stderr, "parse --steam-id") {
		t.Errorf("invalid --steam-id: err=%v stderr=%s", run.err, run.stderr)
	}
}

func TestLocate_UnknownApp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "locate", "999")
	if code := exitCode(run.err); code != 1 {
		t.Fatalf("exit code = %d (%v), want 1", code, run.err)
	}
	if !strings.Contains(run.stderr, "unknown_app") {
		t.Errorf("stderr should name unknown_app:\n%s", run.stderr)
	}
}

func TestLocate_NoInstance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "--manifest", f.manifest, "locate", "400")
	if run.err != nil {
		t.Fatalf("locate error: %v", run.err)
	}

	cfg := filepath.Join(t.TempDir(), "bare.cue")
	testutil.MustWriteFile(t, cfg, "account: steam_id: "+strconv.Quote(testSteamID)+"\n")
	run = runCLI(t, Dependencies{}, "--config", cfg, "--manifest", f.manifest, "locate", "400")
	if run.err != nil {
		t.Fatalf("locate without instance error: %v", run.err)
	}
	if !strings.Contains(run.stderr, "no_active_instance") {
		t.Errorf("stderr should report no_active_instance:\n%s", run.stderr)
	}
}

func TestWatch_NoResolvableLocation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	cfg := filepath.Join(t.TempDir(), "bare.cue")
	testutil.MustWriteFile(t, cfg, "account: steam_id: "+strconv.Quote(testSteamID)+"\n")

	run := runCLI(t, Dependencies{}, "--config", cfg, "--manifest", f.manifest, "watch", "400")
	if code := exitCode(run.err); code != 1 {
		t.Fatalf("exit code = %d (%v), want 1", code, run.err)
	}
	for _, want := range []string{"no_active_instance", "no save location could be resolved", "saveloc resolve 400"} {
		if !strings.Contains(run.stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, run.stderr)
		}
	}
	if strings.Contains(run.stdout, "Watching") {
		t.Errorf("watch should not start without a location:\n%s", run.stdout)
	}
}

func TestWatch_UnknownApp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "watch", "999")
	if code := exitCode(run.err); code != 1 {
		t.Fatalf("exit code = %d (%v), want 1", code, run.err)
	}
	if !strings.Contains(run.stderr, "unknown_app") {
		t.Errorf("stderr should name unknown_app:\n%s", run.stderr)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "resolve", "220")
	if run.err != nil {
		t.Fatalf("resolve error: %v", run.err)
	}

	for _, want := range []string{
		"%UserDocuments%My Games/HL2/{AccountId32}|*.sav",
		filepath.Join(f.profile, "Documents", "My Games", "HL2", testID32),
		filepath.Join(f.profile, "AppData", "Local", "HL2"),
		"malformed match expression",
	} {
		if !strings.Contains(run.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, run.stdout)
		}
	}
}

func TestApps(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "apps")
	if run.err != nil {
		t.Fatalf("apps error: %v", run.err)
	}
	for _, want := range []string{"Applications (2)", "220", "Half-Life 2", "(3 pattern(s))", "400"} {
		if !strings.Contains(run.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, run.stdout)
		}
	}
}

func TestApps_NoManifests(t *testing.T) {
	t.Parallel()

	cfg := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, cfg, "ui: verbose: false\n")

	run := runCLI(t, Dependencies{}, "--config", cfg, "apps")
	if exitCode(run.err) != 1 {
		t.Fatalf("apps without manifests: err = %v, want exit 1", run.err)
	}
	if !errors.Is(run.err, errNoManifests) {
		t.Errorf("error should wrap errNoManifests, got %v", run.err)
	}
	if !strings.Contains(run.stderr, "--manifest") {
		t.Errorf("stderr should suggest --manifest:\n%s", run.stderr)
	}
}

func TestRoots(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	run := runCLI(t, Dependencies{}, "--config", f.config, "roots")
	if run.err != nil {
		t.Fatalf("roots error: %v", run.err)
	}
	for _, want := range []string{
		"imagefs:" + f.imageFS,
		"[U:1:" + testID32 + "]",
		filepath.Join(f.profile, "Saved Games"),
		"ExternalStorage",
	} {
		if !strings.Contains(run.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, run.stdout)
		}
	}
}

func TestRoots_Proton(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	steamRoot := t.TempDir()
	deps := Dependencies{SteamRoot: func() (string, error) { return steamRoot, nil }}

	run := runCLI(t, deps, "--config", f.config, "--proton", "roots", "220")
	if run.err != nil {
		t.Fatalf("roots --proton error: %v", run.err)
	}
	pfx := filepath.Join(steamRoot, "steamapps", "compatdata", "220", "pfx")
	for _, want := range []string{
		"prefix:" + pfx,
		filepath.Join(pfx, "drive_c", "users", "steamuser", "Documents"),
		filepath.Join(steamRoot, "userdata"),
	} {
		if !strings.Contains(run.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, run.stdout)
		}
	}

	failing := Dependencies{SteamRoot: func() (string, error) { return "", os.ErrNotExist }}
	run = runCLI(t, failing, "--config", f.config, "--proton", "roots", "220")
	if exitCode(run.err) != 1 || !strings.Contains(run.stderr, "--steam-root") {
		t.Errorf("undetected Steam: err=%v stderr=%s", run.err, run.stderr)
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	run := runCLI(t, Dependencies{}, "--config", f.config, "explain")
	if run.err != nil {
		t.Fatalf("explain error: %v", run.err)
	}
	for _, want := range []string{"no_active_instance", "no_identity", "malformed_expression", "watch_limit"} {
		if !strings.Contains(run.stdout, want) {
			t.Errorf("topic list missing %q:\n%s", want, run.stdout)
		}
	}

	run = runCLI(t, Dependencies{}, "--config", f.config, "explain", "no_identity")
	if run.err != nil {
		t.Fatalf("explain no_identity error: %v", run.err)
	}
	if strings.TrimSpace(run.stdout) == "" {
		t.Error("explain no_identity printed nothing")
	}

	run = runCLI(t, Dependencies{}, "--config", f.config, "explain", "bogus")
	if exitCode(run.err) != 1 || !strings.Contains(run.stderr, "unknown topic") {
		t.Errorf("explain bogus: err=%v stderr=%s", run.err, run.stderr)
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")

	run := runCLI(t, Dependencies{}, "--config", path, "config", "path")
	if run.err != nil || strings.TrimSpace(run.stdout) != path {
		t.Fatalf("config path = %q (%v), want %q", run.stdout, run.err, path)
	}

	run = runCLI(t, Dependencies{}, "--config", path, "config", "init")
	if run.err != nil {
		t.Fatalf("config init error: %v", run.err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}

	run = runCLI(t, Dependencies{}, "--config", path, "config", "init")
	if exitCode(run.err) != 1 || !strings.Contains(run.stderr, "--force") {
		t.Errorf("second init: err=%v stderr=%s", run.err, run.stderr)
	}
	run = runCLI(t, Dependencies{}, "--config", path, "config", "init", "--force")
	if run.err != nil {
		t.Errorf("config init --force error: %v", run.err)
	}

	run = runCLI(t, Dependencies{}, "--config", path, "config", "show")
	if run.err != nil {
		t.Fatalf("config show error: %v", run.err)
	}
	for _, want := range []string{path, "wine_user: xuser", "concurrency: 4", "color_scheme: auto"} {
		if !strings.Contains(run.stdout, want) {
			t.Errorf("config show missing %q:\n%s", want, run.stdout)
		}
	}

	run = runCLI(t, Dependencies{}, "--config", path, "config", "dump")
	if run.err != nil || !strings.Contains(run.stdout, "watch_debounce_ms: 500") {
		t.Errorf("config dump = %q (%v)", run.stdout, run.err)
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int64
		want string
	}{
		{n: 0, want: "0 B"},
		{n: 1023, want: "1023 B"},
		{n: 1024, want: "1.0 KiB"},
		{n: 1536, want: "1.5 KiB"},
		{n: 5 << 20, want: "5.0 MiB"},
		{n: 3 << 30, want: "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
