// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saveloc/saveloc/internal/catalog"
	"github.com/saveloc/saveloc/internal/locator"
)

func newResolveCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <appid>",
		Short: "Show the location each save pattern resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := catalog.AppID(args[0])
			ws, err := app.open(cmd.Context(), flags, id)
			if err != nil {
				return app.fail(cmd, flags, err)
			}

			prefixes, diags := ws.locator.Prefixes(id)
			fmt.Fprintln(app.stdout, TitleStyle.Render("Save locations for "+id.String()))
			for _, p := range prefixes {
				fmt.Fprintf(app.stdout, "[%d] %s\n", p.PatternIndex, CmdStyle.Render(p.Pattern.String()))
				if p.Diagnostic != nil {
					fmt.Fprintf(app.stdout, "    %s %v %s\n", WarningStyle.Render("!"), p.Diagnostic.Cause,
						SubtitleStyle.Render("(saveloc explain "+p.Diagnostic.Code+")"))
					continue
				}
				fmt.Fprintf(app.stdout, "    %s %s\n", SuccessStyle.Render("→"), p.Path)
			}

			renderDiagnostics(app.stderr, appLevel(diags), ws.verbose)
			if failing(diags) {
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}

// appLevel keeps the diagnostics that are not attached to a pattern.
func appLevel(diags []locator.Diagnostic) []locator.Diagnostic {
	var out []locator.Diagnostic
	for _, d := range diags {
		if d.PatternIndex < 0 {
			out = append(out, d)
		}
	}
	return out
}
