// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/saveloc/saveloc/internal/locator"
)

type (
	// locateJSON is the --json shape of a locate result.
	locateJSON struct {
		AppID       string           `json:"app_id"`
		Files       []locator.File   `json:"files"`
		TotalSize   int64            `json:"total_size"`
		Diagnostics []diagnosticJSON `json:"diagnostics"`
	}

	diagnosticJSON struct {
		Severity string `json:"severity"`
		Code     string `json:"code"`
		Message  string `json:"message"`
		Path     string `json:"path,omitempty"`
		Pattern  int    `json:"pattern"`
	}
)

func toLocateJSON(res *locator.Result) locateJSON {
	out := locateJSON{
		AppID:       res.AppID.String(),
		Files:       res.Files,
		TotalSize:   res.TotalSize,
		Diagnostics: make([]diagnosticJSON, 0, len(res.Diagnostics)),
	}
	if out.Files == nil {
		out.Files = []locator.File{}
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticJSON{
			Severity: string(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
			Path:     d.Path,
			Pattern:  d.PatternIndex,
		})
	}
	return out
}

// renderResult prints the located files and a total line.
func renderResult(w io.Writer, res *locator.Result) {
	fmt.Fprintln(w, TitleStyle.Render("Save files for "+res.AppID.String()))
	if len(res.Files) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no files found)"))
		return
	}
	for _, f := range res.Files {
		fmt.Fprintf(w, "%s  %s  %s\n",
			sizeStyle.Render(formatSize(f.Size)),
			SubtitleStyle.Render(f.ModTime.Format(time.DateTime)),
			f.Path)
	}
	fmt.Fprintf(w, "\n%s %d file(s), %s\n", SuccessStyle.Render("Total:"), len(res.Files), formatSize(res.TotalSize))
}

// renderDiagnostics prints one line per diagnostic, with the explain topic
// to consult.
func renderDiagnostics(w io.Writer, diags []locator.Diagnostic, verbose bool) {
	for _, d := range diags {
		label := WarningStyle.Render("warning:")
		if d.Severity == locator.SeverityError {
			label = ErrorStyle.Render("error:")
		}
		fmt.Fprintf(w, "%s %s %s\n", label, d.Message,
			SubtitleStyle.Render("(saveloc explain "+d.Code+")"))
		if verbose && d.Cause != nil {
			fmt.Fprintf(w, "    cause: %v\n", d.Cause)
		}
	}
}

// failing reports whether diags should make the command exit non-zero: an
// error-severity diagnostic or an application missing from the manifests.
func failing(diags []locator.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == locator.SeverityError || d.Code == locator.CodeUnknownApp {
			return true
		}
	}
	return false
}

// formatSize renders n bytes with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
