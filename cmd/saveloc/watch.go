// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saveloc/saveloc/internal/catalog"
	"github.com/saveloc/saveloc/internal/issue"
	"github.com/saveloc/saveloc/internal/watch"
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <appid>",
		Short: "List save files again whenever they change",
		Long: `List save files again whenever they change.

The save files are listed once, then every resolved location is watched
and the list is printed again after changes settle. A location that does
not exist yet is watched from its nearest existing parent, so the first
save is seen too. Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, flags, catalog.AppID(args[0]))
		},
	}
}

func runWatch(cmd *cobra.Command, app *App, flags *rootFlagValues, id catalog.AppID) error {
	ctx := cmd.Context()
	ws, err := app.open(ctx, flags, id)
	if err != nil {
		return app.fail(cmd, flags, err)
	}

	prefixes, diags := ws.locator.Prefixes(id)
	if failing(diags) {
		renderDiagnostics(app.stderr, diags, ws.verbose)
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return &ExitError{Code: 1}
	}

	var targets []watch.Target
	for _, p := range prefixes {
		if p.Diagnostic != nil {
			continue
		}
		targets = append(targets, watch.Target{Dir: p.Path, Patterns: []string{p.Pattern.Pattern}})
	}
	if len(targets) == 0 {
		renderDiagnostics(app.stderr, diags, ws.verbose)
		return app.fail(cmd, flags, issue.NewErrorContext().
			WithOperation("watch save locations").
			WithResource(id.String()).
			WithSuggestion("Run 'saveloc resolve "+id.String()+"' to see why no pattern resolves").
			Wrap(errors.New("no save location could be resolved")).
			BuildError())
	}

	relocate := func(ctx context.Context) {
		res, locErr := ws.locator.Locate(ctx, id)
		if locErr != nil {
			ws.logger.Debug("scan interrupted", "err", locErr)
			return
		}
		renderResult(app.stdout, res)
		renderDiagnostics(app.stderr, res.Diagnostics, ws.verbose)
	}

	relocate(ctx)

	w, err := watch.New(watch.Config{
		Targets:  targets,
		Debounce: time.Duration(ws.cfg.Scan.WatchDebounceMS) * time.Millisecond,
		Logger:   ws.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "\n%s Detected %d change(s)\n", CmdStyle.Render("→"), len(changed))
			for _, path := range changed {
				ws.logger.Debug("changed", "path", path)
			}
			relocate(ctx)
			return nil
		},
	})
	if err != nil {
		return app.fail(cmd, flags, watchError(id, err))
	}

	fmt.Fprintf(app.stdout, "\n%s Watching %d location(s) (Ctrl+C to stop)...\n",
		CmdStyle.Render("→"), len(w.Targets()))
	if err := w.Run(ctx); err != nil {
		return app.fail(cmd, flags, watchError(id, err))
	}
	return nil
}

func watchError(id catalog.AppID, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("watch save locations").
		WithResource(id.String())
	if errors.Is(err, watch.ErrWatchLimit) {
		ec = ec.WithSuggestion("Raise fs.inotify.max_user_watches or the open file limit").
			WithSuggestion("Run 'saveloc explain watch_limit' for details")
	}
	return ec.Wrap(err).BuildError()
}
