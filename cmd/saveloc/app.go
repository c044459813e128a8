// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/saveloc/saveloc/internal/catalog"
	"github.com/saveloc/saveloc/internal/config"
	"github.com/saveloc/saveloc/internal/instance"
	"github.com/saveloc/saveloc/internal/issue"
	"github.com/saveloc/saveloc/internal/locator"
	"github.com/saveloc/saveloc/pkg/savepattern"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and builds
	// a workspace from it for the current invocation.
	App struct {
		Config config.Provider
		// SteamRoot detects the host Steam directory for --proton.
		SteamRoot func() (string, error)
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		SteamRoot func() (string, error)
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// workspace is everything one invocation needs: the loaded
	// configuration, the manifests, the active instance and the account.
	workspace struct {
		cfg     *config.Config
		logger  *log.Logger
		verbose bool
		manager *instance.Manager
		session *savepattern.Session
		catalog *catalog.Catalog
		locator *locator.Locator
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.SteamRoot == nil {
		deps.SteamRoot = instance.DetectSteamRoot
	}

	return &App{
		Config:    deps.Config,
		SteamRoot: deps.SteamRoot,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}, nil
}

// loadConfig loads the configuration named by the --config flag.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
}

// open builds the workspace for appID, including the manifest catalog and
// the locator. appID may be empty for commands that do not target one
// application; --proton then has nothing to activate.
func (a *App) open(ctx context.Context, flags *rootFlagValues, appID catalog.AppID) (*workspace, error) {
	ws, err := a.openInstance(ctx, flags, appID)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(flags, ws.cfg)
	if err != nil {
		return nil, err
	}
	ws.catalog = cat
	ws.locator = &locator.Locator{
		Catalog:     cat,
		Resolver:    savepattern.NewResolver(ws.manager.Registry(), ws.session),
		Logger:      ws.logger,
		Concurrency: ws.cfg.Scan.Concurrency,
	}
	return ws, nil
}

// openInstance loads the configuration, signs in the account and activates
// the instance, without reading any manifest.
func (a *App) openInstance(ctx context.Context, flags *rootFlagValues, appID catalog.AppID) (*workspace, error) {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}

	verbose := flags.verbose || cfg.UI.Verbose
	logger := newLogger(a.stderr, verbose)

	ws := &workspace{
		cfg:     cfg,
		logger:  logger,
		verbose: verbose,
		manager: instance.NewManager(&savepattern.Registry{}, logger),
		session: &savepattern.Session{},
	}

	if err := ws.signIn(flags); err != nil {
		return nil, err
	}
	if err := a.activate(ws, flags, appID); err != nil {
		return nil, err
	}
	return ws, nil
}

// signIn applies --steam-id, falling back to account.steam_id. Without
// either the session stays signed out.
func (ws *workspace) signIn(flags *rootFlagValues) error {
	if flags.steamID != "" {
		id, err := savepattern.ParseSteamID(flags.steamID)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("parse --steam-id").
				WithResource(flags.steamID).
				WithSuggestion("Use a SteamID64 (7656119...), an account id, or the [U:1:<id>] form").
				Wrap(err).
				BuildError()
		}
		ws.session.SignIn(id.ID64)
		return nil
	}

	id, ok, err := ws.cfg.Account.Identity()
	if err != nil {
		return err
	}
	if ok {
		ws.session.SignIn(id.ID64)
	} else {
		ws.logger.Debug("no account configured, session signed out")
	}
	return nil
}

// activate makes the configured instance, or with --proton the Proton prefix
// of appID, the active one.
func (a *App) activate(ws *workspace, flags *rootFlagValues, appID catalog.AppID) error {
	var layout instance.Layout
	switch {
	case flags.proton || flags.steamRoot != "":
		if appID == "" {
			return nil
		}
		steamRoot := flags.steamRoot
		if steamRoot == "" {
			detected, err := a.SteamRoot()
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("detect Steam installation").
					WithSuggestion("Pass --steam-root with the directory containing steamapps").
					Wrap(err).
					BuildError()
			}
			steamRoot = detected
		}
		layout = instance.FromProtonPrefix(steamRoot, appID.String())
	case ws.cfg.Instance.IsConfigured():
		layout = ws.cfg.Instance.Layout()
	default:
		ws.logger.Debug("no instance configured")
		return nil
	}

	if err := ws.manager.Activate(layout); err != nil {
		return issue.NewErrorContext().
			WithOperation("activate instance").
			WithResource(layout.Name()).
			WithSuggestion("Check the instance section of your configuration").
			Wrap(err).
			BuildError()
	}
	return nil
}

// loadCatalog loads the --manifest paths, or the configured manifests when
// none are given.
func loadCatalog(flags *rootFlagValues, cfg *config.Config) (*catalog.Catalog, error) {
	paths := flags.manifests
	if len(paths) == 0 {
		for _, p := range cfg.Manifests {
			paths = append(paths, p.String())
		}
	}
	if len(paths) == 0 {
		return nil, issue.NewErrorContext().
			WithOperation("load manifests").
			WithSuggestion("Pass --manifest <file or directory>").
			WithSuggestion("Or list manifest paths under 'manifests' in your configuration").
			Wrap(errNoManifests).
			BuildError()
	}
	return catalog.LoadPaths(paths...)
}

var errNoManifests = errors.New("no manifests configured")

// newLogger returns the CLI logger: warnings by default, debug when verbose.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "saveloc",
		Level:  level,
	})
}

// fail renders err for the user and returns an ExitError so fang does not
// print it a second time.
func (a *App) fail(cmd *cobra.Command, flags *rootFlagValues, err error) error {
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+issue.Format(err, flags.verbose))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: 1, Err: err}
}
