// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	verbose    bool
	steamID    string
	manifests  []string
	proton     bool
	steamRoot  string
}

// NewRootCommand builds the saveloc command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "saveloc",
		Short: "Find game save files inside a Windows compatibility layer",
		Long: TitleStyle.Render("saveloc") + SubtitleStyle.Render(" - Find game save files inside a Windows compatibility layer") + `

saveloc turns per-game save declarations (a symbolic root, a templated
path and a match expression) into concrete, account-specific locations
inside a Wine or Proton prefix, then lists the files found there.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Write a default configuration: saveloc config init
  2. Point instance.imagefs (or instance.wine_prefix) at your prefix
  3. Add manifest files or directories to 'manifests'

` + SubtitleStyle.Render("Examples:") + `
  saveloc apps                   List applications from the manifests
  saveloc locate 220             List save files of application 220
  saveloc resolve 220            Show where each pattern points
  saveloc watch 220              Re-list saves whenever they change
  saveloc --proton locate 220    Use the Proton prefix Steam made for 220`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is the platform config dir, then ./config.cue)")
	pf.StringVar(&flags.steamID, "steam-id", "", "signed-in account: SteamID64, account id or [U:1:<id>]")
	pf.StringArrayVar(&flags.manifests, "manifest", nil, "manifest file or directory (repeatable, replaces configured manifests)")
	pf.BoolVar(&flags.proton, "proton", false, "use the Proton prefix Steam created for the application")
	pf.StringVar(&flags.steamRoot, "steam-root", "", "Steam installation directory for --proton (default: detected)")

	rootCmd.AddCommand(
		newLocateCommand(app, flags),
		newResolveCommand(app, flags),
		newAppsCommand(app, flags),
		newRootsCommand(app, flags),
		newWatchCommand(app, flags),
		newExplainCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
