// SPDX-License-Identifier: MPL-2.0

package savepattern

import (
	"errors"
	"fmt"
)

// ErrInvalidSavePattern is the sentinel error wrapped by InvalidSavePatternError.
var ErrInvalidSavePattern = errors.New("invalid save pattern")

type (
	// SavePattern declares where an application keeps save data. It is an
	// immutable value; derived paths are recomputed on every call because the
	// signed-in account and the active instance can change between uses.
	SavePattern struct {
		// Root is the symbolic anchor the template is relative to.
		Root Root `json:"root" toml:"root"`
		// Path is the root-relative directory template. It may contain
		// account tokens such as {AccountId64}.
		Path string `json:"path" toml:"path"`
		// Pattern is the glob-style match expression tested against file
		// paths relative to the resolved directory.
		Pattern string `json:"pattern" toml:"pattern"`
	}

	// InvalidSavePatternError is returned when a SavePattern has invalid fields.
	// It wraps ErrInvalidSavePattern for errors.Is() compatibility.
	InvalidSavePatternError struct {
		FieldErrors []error
	}
)

// SubstitutedPath returns Path with every account token replaced for id.
func (p SavePattern) SubstitutedPath(id Identity) string {
	return Substitute(p.Path, id)
}

// String renders the pattern in the "%Root%path|pattern" form used in logs.
func (p SavePattern) String() string {
	return fmt.Sprintf("%%%s%%%s|%s", p.Root, p.Path, p.Pattern)
}

// IsValid returns whether the SavePattern has valid fields. Only the root is
// checked here; match expressions are validated by the matcher so a bad
// expression degrades to a per-pattern warning instead of rejecting a manifest.
func (p SavePattern) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := p.Root.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSavePatternError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSavePatternError.
func (e *InvalidSavePatternError) Error() string {
	return fmt.Sprintf("invalid save pattern: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidSavePattern for errors.Is() compatibility.
func (e *InvalidSavePatternError) Unwrap() error { return ErrInvalidSavePattern }
