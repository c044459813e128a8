// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/saveloc/saveloc/internal/config"
	"github.com/saveloc/saveloc/internal/issue"
)

// newConfigCommand creates the `saveloc config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage saveloc configuration",
		Long: `Manage saveloc configuration.

Configuration is stored in:
  - Linux: ~/.config/saveloc/config.cue
  - macOS: ~/Library/Application Support/saveloc/config.cue
  - Windows: %APPDATA%\saveloc\config.cue

A config.cue in the working directory is used when the platform file does
not exist. Every key can be overridden with a SAVELOC_ environment
variable, for example SAVELOC_SCAN_CONCURRENCY=8.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, flags)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(config.LoadOptions{ConfigFilePath: flags.configPath}, force)
			if errors.Is(err, config.ErrConfigExists) {
				return app.fail(cmd, flags, issue.NewErrorContext().
					WithOperation("create configuration").
					WithResource(path).
					WithSuggestion("Pass --force to overwrite it").
					Wrap(err).
					BuildError())
			}
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintln(app.stdout, path)
			if !exists {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("(file does not exist, defaults are in use)"))
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, flags *rootFlagValues) error {
	cfg, err := app.loadConfig(cmd.Context(), flags)
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render(string(config.ColorSchemeAuto)); renderErr == nil {
			fmt.Fprint(app.stderr, rendered)
		}
		return app.fail(cmd, flags, err)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	path, exists, pathErr := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configPath})
	if pathErr == nil && exists {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	value := func(s string) string {
		if s == "" {
			return SubtitleStyle.Render("(unset)")
		}
		return valueStyle.Render(s)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("instance"))
	fmt.Fprintf(out, "  imagefs: %s\n", value(cfg.Instance.ImageFS))
	fmt.Fprintf(out, "  container_id: %s\n", value(cfg.Instance.ContainerID))
	fmt.Fprintf(out, "  wine_user: %s\n", value(cfg.Instance.WineUser))
	fmt.Fprintf(out, "  wine_prefix: %s\n", value(cfg.Instance.WinePrefix))
	fmt.Fprintf(out, "  game_install: %s\n", value(cfg.Instance.GameInstall))
	fmt.Fprintf(out, "  external_storage: %s\n", value(cfg.Instance.ExternalStorage))
	fmt.Fprintf(out, "  steam_userdata: %s\n", value(cfg.Instance.SteamUserData))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("account"))
	fmt.Fprintf(out, "  steam_id: %s\n", value(cfg.Account.SteamID))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("manifests"))
	if len(cfg.Manifests) == 0 {
		fmt.Fprintf(out, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, m := range cfg.Manifests {
		fmt.Fprintf(out, "  - %s\n", valueStyle.Render(m.String()))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("scan"))
	fmt.Fprintf(out, "  concurrency: %s\n", value(strconv.Itoa(cfg.Scan.Concurrency)))
	fmt.Fprintf(out, "  watch_debounce_ms: %s\n", value(strconv.Itoa(cfg.Scan.WatchDebounceMS)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(out, "  color_scheme: %s\n", value(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(out, "  verbose: %s\n", value(strconv.FormatBool(cfg.UI.Verbose)))

	return nil
}
