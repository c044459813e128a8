// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAppsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the applications declared by the loaded manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context(), flags, "")
			if err != nil {
				return app.fail(cmd, flags, err)
			}

			ids := ws.catalog.Apps()
			fmt.Fprintln(app.stdout, TitleStyle.Render(fmt.Sprintf("Applications (%d)", len(ids))))
			if len(ids) == 0 {
				fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render("(none declared)"))
				return nil
			}
			for _, id := range ids {
				entry, _ := ws.catalog.App(id)
				name := entry.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(app.stdout, "  %s  %s  %s\n",
					CmdStyle.Render(id.String()), name,
					SubtitleStyle.Render(fmt.Sprintf("(%d pattern(s))", len(entry.Patterns))))
			}
			return nil
		},
	}
}
