// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/saveloc/saveloc/pkg/savepattern"
)

var (
	// ErrInvalidAppID is the sentinel error wrapped by InvalidAppIDError.
	ErrInvalidAppID = errors.New("invalid application id")
	// ErrInvalidApp is the sentinel error wrapped by InvalidAppError.
	ErrInvalidApp = errors.New("invalid application entry")
)

type (
	// AppID identifies an application, typically its numeric store id.
	// A valid id is non-empty and contains no whitespace.
	AppID string

	// InvalidAppIDError is returned when an AppID is empty or contains
	// whitespace. It wraps ErrInvalidAppID for errors.Is() compatibility.
	InvalidAppIDError struct {
		Value AppID
	}

	// App is one application's save-location declaration.
	App struct {
		ID       AppID
		Name     string
		Patterns []savepattern.SavePattern
	}

	// InvalidAppError is returned when an App has invalid fields. It wraps
	// ErrInvalidApp and collects field-level validation errors.
	InvalidAppError struct {
		ID          AppID
		FieldErrors []error
	}

	// Catalog maps applications to their ordered save patterns. A Catalog is
	// built once and then only read; reads are safe from any goroutine as
	// long as no Add or Merge runs concurrently.
	Catalog struct {
		apps map[AppID]App
	}
)

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{apps: make(map[AppID]App)}
}

// Add registers app, replacing any previous entry with the same id.
func (c *Catalog) Add(app App) error {
	if valid, errs := app.IsValid(); !valid {
		return errors.Join(errs...)
	}
	app.Patterns = slices.Clone(app.Patterns)
	c.apps[app.ID] = app
	return nil
}

// PatternsFor returns the patterns declared for id in declaration order.
// An unknown application yields an empty slice.
func (c *Catalog) PatternsFor(id AppID) []savepattern.SavePattern {
	app, ok := c.apps[id]
	if !ok {
		return []savepattern.SavePattern{}
	}
	return slices.Clone(app.Patterns)
}

// App returns the entry for id.
func (c *Catalog) App(id AppID) (App, bool) {
	app, ok := c.apps[id]
	if ok {
		app.Patterns = slices.Clone(app.Patterns)
	}
	return app, ok
}

// Apps returns every known application id, sorted.
func (c *Catalog) Apps() []AppID {
	return slices.Sorted(maps.Keys(c.apps))
}

// Len returns the number of applications.
func (c *Catalog) Len() int { return len(c.apps) }

// Merge copies every application of other into c. Entries of other replace
// entries of c with the same id wholesale.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	for id, app := range other.apps {
		c.apps[id] = app
	}
}

// String returns the string representation of the AppID.
func (id AppID) String() string { return string(id) }

// IsValid returns whether the AppID is valid.
func (id AppID) IsValid() (bool, []error) {
	if id == "" || strings.ContainsFunc(string(id), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		return false, []error{&InvalidAppIDError{Value: id}}
	}
	return true, nil
}

// IsValid returns whether the App has valid fields. It delegates to
// ID.IsValid() and each pattern's IsValid().
func (a App) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := a.ID.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, p := range a.Patterns {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidAppError{ID: a.ID, FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidAppIDError.
func (e *InvalidAppIDError) Error() string {
	return fmt.Sprintf("invalid application id %q: must be non-empty without whitespace", e.Value)
}

// Unwrap returns ErrInvalidAppID for errors.Is() compatibility.
func (e *InvalidAppIDError) Unwrap() error { return ErrInvalidAppID }

// Error implements the error interface for InvalidAppError.
func (e *InvalidAppError) Error() string {
	return fmt.Sprintf("invalid application %q: %d field error(s)", e.ID, len(e.FieldErrors))
}

// Unwrap returns ErrInvalidApp for errors.Is() compatibility.
func (e *InvalidAppError) Unwrap() error { return ErrInvalidApp }
