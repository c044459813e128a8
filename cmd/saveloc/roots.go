// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saveloc/saveloc/internal/catalog"
	"github.com/saveloc/saveloc/pkg/savepattern"
)

func newRootsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "roots [appid]",
		Short: "Show where each symbolic root points in the active instance",
		Long: `Show where each symbolic root points in the active instance.

With --proton the application id selects the Proton prefix to show.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id catalog.AppID
			if len(args) == 1 {
				id = catalog.AppID(args[0])
			}
			ws, err := app.openInstance(cmd.Context(), flags, id)
			if err != nil {
				return app.fail(cmd, flags, err)
			}

			layout, ok := ws.manager.Active()
			if !ok {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("No active instance."))
				fmt.Fprintf(app.stdout, "Set instance.imagefs or instance.wine_prefix in your configuration, or use %s.\n",
					CmdStyle.Render("--proton <appid>"))
				return nil
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Instance "+layout.Name()))
			if current, err := ws.session.Current(); err == nil {
				fmt.Fprintf(app.stdout, "%s %s (%s)\n", CmdStyle.Render("account:"), current.String(), current.Steam3())
			} else {
				fmt.Fprintf(app.stdout, "%s %s\n", CmdStyle.Render("account:"), SubtitleStyle.Render("(signed out)"))
			}
			fmt.Fprintln(app.stdout)

			for _, root := range savepattern.Roots() {
				prefix, err := ws.manager.Registry().Lookup(root)
				if err != nil {
					fmt.Fprintf(app.stdout, "%-16s %s\n", root, WarningStyle.Render(err.Error()))
					continue
				}
				fmt.Fprintf(app.stdout, "%-16s %s\n", root, prefix)
			}
			return nil
		},
	}
}
