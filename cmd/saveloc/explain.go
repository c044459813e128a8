// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saveloc/saveloc/internal/config"
	"github.com/saveloc/saveloc/internal/issue"
)

func newExplainCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain a diagnostic code",
		Long: `Explain a diagnostic code.

Without an argument, lists every topic. Diagnostic lines printed by the
other commands end with the code to pass here.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("Topics"))
				for _, is := range issue.Values() {
					fmt.Fprintf(app.stdout, "  %-20s %s\n", CmdStyle.Render(string(is.Id())), is.Title())
				}
				return nil
			}

			is := issue.Get(issue.Id(args[0]))
			if is == nil {
				return app.fail(cmd, flags, issue.NewErrorContext().
					WithOperation("explain").
					WithResource(args[0]).
					WithSuggestion("Run 'saveloc explain' to list the known topics").
					Wrap(fmt.Errorf("unknown topic %q", args[0])).
					BuildError())
			}

			rendered, err := is.Render(glamourStyle(app, cmd, flags))
			if err != nil {
				return fmt.Errorf("render %s: %w", args[0], err)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}

// glamourStyle maps ui.color_scheme to a glamour style. A broken config
// must not prevent reading the help for it, so load errors fall back to auto.
func glamourStyle(app *App, cmd *cobra.Command, flags *rootFlagValues) string {
	cfg, err := app.loadConfig(cmd.Context(), flags)
	if err != nil || cfg.UI.ColorScheme == "" {
		return string(config.ColorSchemeAuto)
	}
	return cfg.UI.ColorScheme.String()
}
