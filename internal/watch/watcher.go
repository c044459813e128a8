// SPDX-License-Identifier: MPL-2.0

// Package watch monitors save directories and fires a debounced callback when
// files inside them change.
//
// A Watcher observes several base directories at once, one per resolved save
// prefix, each with its own match expressions. Events within the debounce
// window are coalesced so the callback fires once with every changed path.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the callback after the last
// filesystem event. Games often write a temp file and rename it, which
// produces several events per save.
const defaultDebounce = 500 * time.Millisecond

var (
	// ErrWatchLimit is returned when the operating system refuses more
	// watches or file descriptors.
	ErrWatchLimit = errors.New("file watch limit reached")

	// defaultIgnores are never reported. They cover editor and OS noise that
	// shows up in user-visible save folders.
	defaultIgnores = []string{
		"**/*.swp",
		"**/*~",
		"**/.DS_Store",
		"**/desktop.ini",
		"**/Thumbs.db",
	}
)

type (
	// Target is one directory to watch together with the match expressions,
	// relative to Dir, that select the files of interest. No expressions
	// selects every file.
	Target struct {
		Dir      string
		Patterns []string
	}

	// Config holds the parameters for a Watcher.
	Config struct {
		// Targets are the directories to watch. Targets sharing a directory
		// are merged. A directory that does not exist yet is awaited through
		// its nearest existing parent and watched once it is created; the
		// matching files it already holds at that point count as changed.
		Targets []Target

		// Ignore are additional glob patterns, relative to a target
		// directory, that never trigger the callback.
		Ignore []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange is called after the debounce window closes with the sorted,
		// deduplicated absolute paths that changed. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors filesystem paths and fires a debounced callback when
	// matching files change. Run must be called exactly once; calling it a
	// second time returns an error.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		targets  []Target
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		started  atomic.Bool

		// present records which target directories are watched. It is only
		// touched by New and the Run goroutine.
		present map[string]bool
	}
)

// New creates a Watcher from cfg and registers every existing directory
// below the targets.
func New(cfg Config) (*Watcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	targets, err := mergeTargets(cfg.Targets)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if err := validatePatterns(t.Patterns, "match"); err != nil {
			return nil, err
		}
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		targets:  targets,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		logger:   logger,
		debounce: debounce,
		present:  make(map[string]bool, len(targets)),
	}

	for _, t := range targets {
		if _, err := w.syncTarget(t); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				logger.Warn("watch: close after init failure", "err", closeErr)
			}
			return nil, err
		}
	}

	return w, nil
}

// Targets returns the merged targets, one per distinct directory.
func (w *Watcher) Targets() []Target {
	out := make([]Target, len(w.targets))
	for i, t := range w.targets {
		out[i] = Target{Dir: t.Dir, Patterns: slices.Clone(t.Patterns)}
	}
	return out
}

// WatchedDirs returns the directories currently registered with the
// operating system, sorted.
func (w *Watcher) WatchedDirs() []string {
	dirs := w.fsw.WatchList()
	slices.Sort(dirs)
	return dirs
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates any fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire drains the pending set and invokes OnChange. A run still in
	// progress defers the batch by one debounce period instead of running
	// the callback concurrently.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("watch: previous run still in progress, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("watch: callback failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("watch: close fsnotify", "err", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}

			// New directories are watched whatever the patterns say, so
			// files created inside them later are seen.
			var changed []string
			if evt.Has(fsnotify.Create) {
				changed = w.maybeAddDir(evt.Name)
			}
			appeared, err := w.syncTargets(evt.Name)
			if err != nil {
				return err
			}
			changed = append(changed, appeared...)
			if w.relevant(evt.Name) {
				changed = append(changed, evt.Name)
			}
			if len(changed) == 0 {
				continue
			}

			mu.Lock()
			for _, p := range changed {
				pending[p] = struct{}{}
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: %w: %w", ErrWatchLimit, err)
			}
			w.logger.Warn("watch: fsnotify error", "err", err)
		}
	}
}

// relevant reports whether path belongs to a target, is not ignored and
// matches one of the target's patterns.
func (w *Watcher) relevant(path string) bool {
	for _, t := range w.targets {
		rel, ok := relativeTo(t.Dir, path)
		if !ok || w.isIgnored(rel) {
			continue
		}
		if matchesAny(t.Patterns, rel) {
			return true
		}
	}
	return false
}

// addDirectories walks root and adds every non-ignored directory. A missing
// root is skipped; inaccessible subdirectories are logged and skipped.
func (w *Watcher) addDirectories(root string) error {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		w.logger.Debug("watch: skipping missing directory", "dir", root)
		return nil
	}

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("watch: skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, _ := relativeTo(root, path)
		if rel != "" && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			if isFatalFsnotifyError(addErr) {
				return fmt.Errorf("%w: %w", ErrWatchLimit, addErr)
			}
			return fmt.Errorf("add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %s: %w", root, walkErr)
	}
	return nil
}

// maybeAddDir adds path to the watcher if it is a directory below a target
// and not ignored. It returns the matching files already inside it, which may
// have been written before the watch was in place.
func (w *Watcher) maybeAddDir(path string) []string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}
	for _, t := range w.targets {
		rel, ok := relativeTo(t.Dir, path)
		if !ok || rel == "" || w.isIgnored(rel) || w.isIgnored(rel+"/") {
			continue
		}
		if err := w.addDirectories(path); err != nil {
			w.logger.Warn("watch: add new directory", "dir", path, "err", err)
			return nil
		}
		return w.existingMatches(path)
	}
	return nil
}

// syncTargets re-checks every target whose directory is path or lies below
// it. Only watch limit errors are returned; others are logged.
func (w *Watcher) syncTargets(path string) ([]string, error) {
	var appeared []string
	for _, t := range w.targets {
		if _, ok := relativeTo(path, t.Dir); !ok {
			continue
		}
		found, err := w.syncTarget(t)
		if err != nil {
			if errors.Is(err, ErrWatchLimit) {
				return nil, err
			}
			w.logger.Warn("watch: sync target", "dir", t.Dir, "err", err)
			continue
		}
		appeared = append(appeared, found...)
	}
	return appeared, nil
}

// syncTarget watches t.Dir when it exists and otherwise its nearest existing
// parent. When t.Dir has just appeared, the matching files it already holds
// are returned.
func (w *Watcher) syncTarget(t Target) ([]string, error) {
	if !isDir(t.Dir) {
		w.present[t.Dir] = false
		if err := w.awaitDir(t.Dir); err != nil {
			return nil, err
		}
		// The directory may have been created while the parent was added.
		if !isDir(t.Dir) {
			return nil, nil
		}
	}
	if w.present[t.Dir] {
		return nil, nil
	}
	if err := w.addDirectories(t.Dir); err != nil {
		return nil, err
	}
	w.present[t.Dir] = true
	return w.existingMatches(t.Dir), nil
}

// awaitDir watches the nearest existing parent of the missing dir. It repeats
// until that parent is stable, since intermediate directories may be created
// in the meantime.
func (w *Watcher) awaitDir(dir string) error {
	var last string
	for {
		anchor := nearestExistingDir(dir)
		if anchor == "" || anchor == dir || anchor == last {
			return nil
		}
		if err := w.fsw.Add(anchor); err != nil {
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: %w: %w", ErrWatchLimit, err)
			}
			w.logger.Warn("watch: cannot watch parent of missing directory", "dir", dir, "parent", anchor, "err", err)
			return nil
		}
		w.logger.Debug("watch: waiting for directory", "dir", dir, "parent", anchor)
		last = anchor
	}
}

// existingMatches lists the relevant regular files below root.
func (w *Watcher) existingMatches(root string) []string {
	var found []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && d.Type().IsRegular() && w.relevant(path) {
			found = append(found, path)
		}
		return nil
	})
	return found
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// nearestExistingDir returns dir or its closest ancestor that is an existing
// directory, or "" when there is none.
func nearestExistingDir(dir string) string {
	for p := dir; ; {
		if isDir(p) {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}

// isIgnored returns true if the slash-separated rel matches any ignore
// pattern.
func (w *Watcher) isIgnored(rel string) bool {
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, rel); matchErr == nil && matched {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pat := range patterns {
		if matched, matchErr := doublestar.Match(pat, rel); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// relativeTo returns the slash-separated path of path below dir. ok is false
// when path is outside dir.
func relativeTo(dir, path string) (rel string, ok bool) {
	r, err := filepath.Rel(dir, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	if r == "." {
		return "", true
	}
	return filepath.ToSlash(r), true
}

// mergeTargets makes every target directory absolute and merges targets
// that share a directory. A target without patterns selects every file in
// its directory, so it absorbs the patterns of its siblings.
func mergeTargets(targets []Target) ([]Target, error) {
	var out []Target
	index := make(map[string]int)
	for _, t := range targets {
		if strings.TrimSpace(t.Dir) == "" {
			return nil, errors.New("watch: target directory must not be empty")
		}
		abs, err := filepath.Abs(t.Dir)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", t.Dir, err)
		}

		i, seen := index[abs]
		switch {
		case !seen:
			index[abs] = len(out)
			out = append(out, Target{Dir: abs, Patterns: slices.Clone(t.Patterns)})
		case len(out[i].Patterns) == 0:
			// Already selects everything.
		case len(t.Patterns) == 0:
			out[i].Patterns = nil
		default:
			for _, p := range t.Patterns {
				if !slices.Contains(out[i].Patterns, p) {
					out[i].Patterns = append(out[i].Patterns, p)
				}
			}
		}
	}
	return out, nil
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks that every pattern is a valid doublestar glob.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
