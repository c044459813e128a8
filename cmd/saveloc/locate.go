// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saveloc/saveloc/internal/catalog"
)

func newLocateCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "locate <appid>",
		Short: "List the save files of an application",
		Long: `List the save files of an application.

Every save pattern of the application is resolved against the active
instance and signed-in account, and the files under each location that
match the pattern's expression are listed. Patterns that cannot be
resolved are reported as warnings and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, app, flags, catalog.AppID(args[0]), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func runLocate(cmd *cobra.Command, app *App, flags *rootFlagValues, id catalog.AppID, asJSON bool) error {
	ws, err := app.open(cmd.Context(), flags, id)
	if err != nil {
		return app.fail(cmd, flags, err)
	}

	res, err := ws.locator.Locate(cmd.Context(), id)
	if err != nil {
		ws.logger.Warn("scan interrupted, results are partial", "err", err)
	}

	if asJSON {
		payload, marshalErr := json.MarshalIndent(toLocateJSON(res), "", "  ")
		if marshalErr != nil {
			return fmt.Errorf("marshal result: %w", marshalErr)
		}
		if _, writeErr := fmt.Fprintln(app.stdout, string(payload)); writeErr != nil {
			return fmt.Errorf("write result: %w", writeErr)
		}
	} else {
		renderResult(app.stdout, res)
		renderDiagnostics(app.stderr, res.Diagnostics, ws.verbose)
	}

	if err != nil || failing(res.Diagnostics) {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}
