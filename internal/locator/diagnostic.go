// SPDX-License-Identifier: MPL-2.0

package locator

import (
	"errors"
	"fmt"

	"github.com/saveloc/saveloc/internal/issue"
	"github.com/saveloc/saveloc/internal/matcher"
	"github.com/saveloc/saveloc/pkg/savepattern"
)

const (
	// SeverityWarning marks a skipped pattern.
	SeverityWarning Severity = "warning"
	// SeverityError marks a failure outside the known skip conditions.
	SeverityError Severity = "error"

	// CodeNoActiveInstance is reported when no instance supplies root prefixes.
	CodeNoActiveInstance = string(issue.NoActiveInstanceId)
	// CodeNoIdentity is reported when no account is signed in.
	CodeNoIdentity = string(issue.NoIdentityId)
	// CodeMalformedExpression is reported for an unusable match expression.
	CodeMalformedExpression = string(issue.MalformedExpressionId)
	// CodeUnknownApp is reported when the catalog has no entry for the application.
	CodeUnknownApp = string(issue.UnknownAppId)
	// CodeResolveFailed is reported for any other resolution failure.
	CodeResolveFailed = "resolve_failed"
)

type (
	// Severity is a diagnostic level.
	Severity string

	// Diagnostic is a structured, non-fatal problem found while locating
	// saves. Diagnostics are returned to the caller rather than logged so the
	// CLI decides how to render them.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier, also an 'explain' topic.
		Code    string
		Message string
		// Path is the resolved prefix, when known.
		Path  string
		Cause error
		// PatternIndex is the index of the pattern in the application's
		// list, or -1 for application-level diagnostics.
		PatternIndex int
	}
)

// diagnose classifies a per-pattern error.
func diagnose(index int, p savepattern.SavePattern, prefix string, err error) Diagnostic {
	d := Diagnostic{
		Severity:     SeverityWarning,
		Path:         prefix,
		Cause:        err,
		PatternIndex: index,
	}
	switch {
	case errors.Is(err, savepattern.ErrNoIdentity):
		d.Code = CodeNoIdentity
		d.Message = fmt.Sprintf("pattern %d (%s) skipped: no signed-in account", index, p)
	case errors.Is(err, savepattern.ErrNoActiveInstance):
		d.Code = CodeNoActiveInstance
		d.Message = fmt.Sprintf("pattern %d (%s) skipped: no active instance", index, p)
	case errors.Is(err, matcher.ErrMalformedExpression):
		d.Code = CodeMalformedExpression
		d.Message = fmt.Sprintf("pattern %d (%s) skipped: malformed match expression %q", index, p, p.Pattern)
	default:
		d.Severity = SeverityError
		d.Code = CodeResolveFailed
		d.Message = fmt.Sprintf("pattern %d (%s) skipped: %v", index, p, err)
	}
	return d
}

