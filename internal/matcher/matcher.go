// SPDX-License-Identifier: MPL-2.0

package matcher

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrMalformedExpression is the sentinel error wrapped by MalformedExpressionError.
var ErrMalformedExpression = errors.New("malformed match expression")

type (
	// Entry is a matched save file.
	Entry struct {
		// Path is the absolute host path of the file.
		Path string
		// Rel is the slash-separated path relative to the scanned prefix.
		Rel string
		// RealPath is Path with every symbolic link resolved. A physical file
		// is yielded once per scan, under the first path that matches.
		RealPath string
		// Size is the file size in bytes.
		Size int64
		// ModTime is the last modification time.
		ModTime time.Time
	}

	// MalformedExpressionError is returned when a match expression is empty
	// or not a valid glob. It wraps ErrMalformedExpression.
	MalformedExpressionError struct {
		Expression string
	}

	walker struct {
		expression string
		realRoot   string
		yielded    map[string]struct{}
		yield      func(Entry) bool
	}
)

// Validate checks that expression is a usable match expression.
func Validate(expression string) error {
	if strings.TrimSpace(expression) == "" || !doublestar.ValidatePattern(expression) {
		return &MalformedExpressionError{Expression: expression}
	}
	return nil
}

// Match returns the files under prefix whose relative path matches
// expression. The expression is validated up front; the returned sequence
// is lazy and every range over it performs a fresh scan.
//
// Directories are read in lexicographic order, so the sequence is
// deterministic for a fixed filesystem state. Symbolic links are followed only
// when their target stays inside prefix, and a file reachable through several
// links is reported once.
func Match(prefix, expression string) (iter.Seq[Entry], error) {
	if err := Validate(expression); err != nil {
		return nil, err
	}

	return func(yield func(Entry) bool) {
		root, err := filepath.Abs(prefix)
		if err != nil {
			return
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return
		}
		realRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			return
		}

		w := &walker{
			expression: expression,
			realRoot:   realRoot,
			yielded:    make(map[string]struct{}),
			yield:      yield,
		}
		w.walkDir(root, "", []string{realRoot})
	}, nil
}

// MatchAll runs Match and collects the sequence into a slice.
func MatchAll(prefix, expression string) ([]Entry, error) {
	seq, err := Match(prefix, expression)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// walkDir scans dir (rel is its slash path below the prefix) and reports
// false once the consumer stops the iteration. ancestors holds the real paths
// of the directories on the current branch for cycle detection.
func (w *walker) walkDir(dir, rel string, ancestors []string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable subtrees are skipped; the scan is best-effort.
		return true
	}

	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		childRel := path.Join(rel, e.Name())

		switch mode := e.Type(); {
		case mode&fs.ModeSymlink != 0:
			if !w.visitLink(full, childRel, ancestors) {
				return false
			}

		case mode.IsDir():
			realDir := filepath.Join(ancestors[len(ancestors)-1], e.Name())
			if !w.walkDir(full, childRel, append(ancestors, realDir)) {
				return false
			}

		case mode.IsRegular():
			info, err := e.Info()
			if err != nil {
				continue
			}
			realPath := filepath.Join(ancestors[len(ancestors)-1], e.Name())
			if !w.visitFile(full, realPath, childRel, info) {
				return false
			}
		}
	}
	return true
}

// visitLink follows a symbolic link if its target resolves inside the
// prefix and does not lead back to a directory on the current branch.
func (w *walker) visitLink(full, rel string, ancestors []string) bool {
	target, err := filepath.EvalSymlinks(full)
	if err != nil || !isContainedIn(target, w.realRoot) {
		return true
	}
	info, err := os.Stat(target)
	if err != nil {
		return true
	}

	switch {
	case info.IsDir():
		if slices.Contains(ancestors, target) {
			return true
		}
		return w.walkDir(full, rel, append(ancestors, target))
	case info.Mode().IsRegular():
		return w.visitFile(full, target, rel, info)
	default:
		return true
	}
}

// visitFile yields the file if rel matches and its real path has not been
// yielded yet.
func (w *walker) visitFile(full, realPath, rel string, info fs.FileInfo) bool {
	matched, err := doublestar.Match(w.expression, rel)
	if err != nil || !matched {
		return true
	}
	if _, dup := w.yielded[realPath]; dup {
		return true
	}
	w.yielded[realPath] = struct{}{}
	return w.yield(Entry{
		Path:     full,
		Rel:      rel,
		RealPath: realPath,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	})
}

// isContainedIn reports whether child is root or a path below it. Both paths
// must be absolute and free of symlinks.
func isContainedIn(child, root string) bool {
	rel, err := filepath.Rel(root, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Error implements the error interface for MalformedExpressionError.
func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed match expression %q", e.Expression)
}

// Unwrap returns ErrMalformedExpression for errors.Is() compatibility.
func (e *MalformedExpressionError) Unwrap() error { return ErrMalformedExpression }
