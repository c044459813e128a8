// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/saveloc/saveloc/internal/catalog"
	"github.com/saveloc/saveloc/internal/matcher"
	"github.com/saveloc/saveloc/pkg/savepattern"
)

// DefaultConcurrency is the number of patterns scanned in parallel when
// Locator.Concurrency is not set.
const DefaultConcurrency = 4

type (
	// PatternSource supplies the ordered patterns of an application.
	// *catalog.Catalog implements it.
	PatternSource interface {
		App(id catalog.AppID) (catalog.App, bool)
	}

	// Locator finds the save files of an application.
	Locator struct {
		Catalog  PatternSource
		Resolver *savepattern.Resolver
		// Logger receives debug traces. Nil discards them.
		Logger *log.Logger
		// Concurrency bounds parallel pattern scans. Zero means DefaultConcurrency.
		Concurrency int
	}

	// File is one located save file.
	File struct {
		Path    string    `json:"path"`
		Rel     string    `json:"rel"`
		Size    int64     `json:"size"`
		ModTime time.Time `json:"mod_time"`
		// PatternIndex is the first pattern that matched the file.
		PatternIndex int `json:"pattern"`

		realPath string
	}

	// Result is the outcome of Locate.
	Result struct {
		AppID catalog.AppID
		// Files is the union of all patterns' matches, sorted by Path. A
		// physical file reached through several paths is listed once, under
		// the path found first in pattern order.
		Files       []File
		TotalSize   int64
		Diagnostics []Diagnostic
	}

	// Prefix is the resolved location of one pattern.
	Prefix struct {
		PatternIndex int
		Pattern      savepattern.SavePattern
		// Path is the absolute prefix; empty when resolution failed.
		Path       string
		Diagnostic *Diagnostic
	}

	scan struct {
		files []File
		diag  *Diagnostic
	}
)

// Locate resolves and matches every pattern of id. Skipped patterns are
// reported in Result.Diagnostics; the error is non-nil only when ctx ends
// before the scan completes, in which case the files found so far are still
// returned.
func (l *Locator) Locate(ctx context.Context, id catalog.AppID) (*Result, error) {
	res := &Result{AppID: id}

	app, ok := l.Catalog.App(id)
	if !ok {
		res.Diagnostics = append(res.Diagnostics, unknownApp(id))
		return res, nil
	}

	logger := l.logger().With("app", id)
	scans := make([]scan, len(app.Patterns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cmp.Or(l.Concurrency, DefaultConcurrency))

	for i, p := range app.Patterns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return l.scanPattern(gctx, logger, i, p, &scans[i])
		})
	}
	err := g.Wait()

	seen := make(map[string]struct{})
	for _, s := range scans {
		if s.diag != nil {
			res.Diagnostics = append(res.Diagnostics, *s.diag)
		}
		for _, f := range s.files {
			key := cmp.Or(f.realPath, f.Path)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			res.Files = append(res.Files, f)
			res.TotalSize += f.Size
		}
	}
	slices.SortFunc(res.Files, func(a, b File) int { return cmp.Compare(a.Path, b.Path) })

	logger.Debug("located saves", "files", len(res.Files), "bytes", res.TotalSize, "diagnostics", len(res.Diagnostics))

	if err != nil {
		return res, fmt.Errorf("locate %s: %w", id, err)
	}
	return res, nil
}

// scanPattern fills out with the pattern's matches or its diagnostic. It
// returns an error only for context cancellation.
func (l *Locator) scanPattern(ctx context.Context, logger *log.Logger, i int, p savepattern.SavePattern, out *scan) error {
	prefix, err := l.Resolver.Resolve(p)
	if err != nil {
		d := diagnose(i, p, "", err)
		out.diag = &d
		logger.Debug("pattern skipped", "index", i, "code", d.Code)
		return nil
	}

	seq, err := matcher.Match(prefix, p.Pattern)
	if err != nil {
		d := diagnose(i, p, prefix, err)
		out.diag = &d
		logger.Debug("pattern skipped", "index", i, "code", d.Code)
		return nil
	}

	logger.Debug("scanning", "index", i, "prefix", prefix, "expression", p.Pattern)
	for e := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.files = append(out.files, File{
			Path:         e.Path,
			Rel:          e.Rel,
			Size:         e.Size,
			ModTime:      e.ModTime,
			PatternIndex: i,
			realPath:     e.RealPath,
		})
	}
	return nil
}

// Prefixes resolves every pattern of id without touching the filesystem.
func (l *Locator) Prefixes(id catalog.AppID) ([]Prefix, []Diagnostic) {
	app, ok := l.Catalog.App(id)
	if !ok {
		return nil, []Diagnostic{unknownApp(id)}
	}

	out := make([]Prefix, 0, len(app.Patterns))
	var diags []Diagnostic
	for i, p := range app.Patterns {
		pre := Prefix{PatternIndex: i, Pattern: p}
		path, err := l.Resolver.Resolve(p)
		if err == nil {
			err = matcher.Validate(p.Pattern)
		}
		if err != nil {
			d := diagnose(i, p, path, err)
			pre.Diagnostic = &d
			diags = append(diags, d)
		}
		pre.Path = path
		out = append(out, pre)
	}
	return out, diags
}

func (l *Locator) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.New(io.Discard)
}

func unknownApp(id catalog.AppID) Diagnostic {
	return Diagnostic{
		Severity:     SeverityWarning,
		Code:         CodeUnknownApp,
		Message:      fmt.Sprintf("no save patterns known for application %q", id),
		PatternIndex: -1,
	}
}
