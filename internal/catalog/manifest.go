// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/saveloc/saveloc/internal/issue"
	"github.com/saveloc/saveloc/pkg/cueutil"
	"github.com/saveloc/saveloc/pkg/savepattern"
)

const (
	// FormatCUE is a CUE manifest.
	FormatCUE Format = "cue"
	// FormatJSON is a JSON manifest, evaluated as CUE.
	FormatJSON Format = "json"
	// FormatTOML is a TOML manifest.
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned for manifest files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

//go:embed manifest_schema.cue
var manifestSchema []byte

type (
	// Format is a manifest file format, named by its file extension.
	Format string

	manifestFile struct {
		Apps map[string]manifestApp `json:"apps" toml:"apps"`
	}

	manifestApp struct {
		Name     string            `json:"name" toml:"name"`
		Patterns []manifestPattern `json:"patterns" toml:"patterns"`
	}

	manifestPattern struct {
		Root    string `json:"root" toml:"root"`
		Path    string `json:"path" toml:"path"`
		Pattern string `json:"pattern" toml:"pattern"`
	}
)

// FormatOf returns the manifest format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Parse decodes manifest data in the given format. filename is used in
// error messages only.
func Parse(data []byte, format Format, filename string) (*Catalog, error) {
	var mf *manifestFile

	switch format {
	case FormatCUE, FormatJSON:
		result, err := cueutil.ParseAndDecode[manifestFile](
			manifestSchema,
			data,
			"#Manifest",
			cueutil.WithFilename(filename),
		)
		if err != nil {
			return nil, err
		}
		mf = result.Value
	case FormatTOML:
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
			return nil, err
		}
		mf = &manifestFile{}
		if err := toml.Unmarshal(data, mf); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return mf.toCatalog(filename)
}

// LoadFile reads and parses a single manifest file.
func LoadFile(path string) (*Catalog, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(path).
			WithSuggestion("Use a .cue, .json or .toml manifest").
			Wrap(err).
			BuildError()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(path).
			WithSuggestion("Check that the file exists and is readable").
			Wrap(err).
			BuildError()
	}

	c, err := Parse(data, format, path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(path).
			WithSuggestion("Check the manifest against the documented shape: apps: {\"<id>\": {patterns: [{root, path, pattern}]}}").
			WithSuggestion("Run 'saveloc explain invalid_manifest' for details").
			Wrap(err).
			BuildError()
	}
	return c, nil
}

// LoadDir loads every manifest directly inside dir in lexicographic order
// and merges them.
func LoadDir(dir string) (*Catalog, error) {
	files, err := manifestFilesIn(dir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load manifest directory").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}
	c := New()
	for _, f := range files {
		loaded, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		c.Merge(loaded)
	}
	return c, nil
}

// LoadPaths loads every manifest named by paths and merges them in order, so
// later manifests override earlier ones per application. A directory path
// loads all manifests directly inside it in lexicographic order.
func LoadPaths(paths ...string) (*Catalog, error) {
	c := New()
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load manifest").
				WithResource(p).
				WithSuggestion("Check the manifests entries of your configuration").
				Wrap(err).
				BuildError()
		}
		if !info.IsDir() {
			loaded, err := LoadFile(p)
			if err != nil {
				return nil, err
			}
			c.Merge(loaded)
			continue
		}

		loaded, err := LoadDir(p)
		if err != nil {
			return nil, err
		}
		c.Merge(loaded)
	}
	return c, nil
}

// manifestFilesIn lists the manifest files directly inside dir, sorted.
func manifestFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatOf(e.Name()); err != nil {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// toCatalog converts decoded manifest data, normalizing root names.
func (mf *manifestFile) toCatalog(filename string) (*Catalog, error) {
	c := New()
	ids := make([]string, 0, len(mf.Apps))
	for id := range mf.Apps {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		raw := mf.Apps[id]
		app := App{ID: AppID(id), Name: raw.Name}
		for i, p := range raw.Patterns {
			root, err := savepattern.ParseRoot(p.Root)
			if err != nil {
				return nil, fmt.Errorf("%s: apps.%s.patterns[%d].root: %w", filename, id, i, err)
			}
			app.Patterns = append(app.Patterns, savepattern.SavePattern{
				Root:    root,
				Path:    p.Path,
				Pattern: p.Pattern,
			})
		}
		if err := c.Add(app); err != nil {
			return nil, fmt.Errorf("%s: apps.%s: %w", filename, id, err)
		}
	}
	return c, nil
}
