// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/saveloc/saveloc/internal/issue"
	"github.com/saveloc/saveloc/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "saveloc"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. SAVELOC_SCAN_CONCURRENCY.
	EnvPrefix = "SAVELOC"
)

// ErrConfigExists is returned by WriteDefault when the file already exists.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the saveloc configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file that Load would read, and whether it
// exists. Without an explicit file the platform file wins over config.cue in
// the working directory; when neither exists the platform path is returned.
func FilePath(opts LoadOptions) (string, bool, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, fileExists(opts.ConfigFilePath), nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", false, err
	}
	platformPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(platformPath) {
		return platformPath, true, nil
	}
	localPath := ConfigFileName + "." + ConfigFileExt
	if !opts.SkipWorkingDir && fileExists(localPath) {
		return localPath, true, nil
	}
	return platformPath, false, nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, exists, err := FilePath(opts)
	if err != nil {
		return nil, "", err
	}

	switch {
	case opts.ConfigFilePath != "" && !exists:
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'saveloc config init' to write a default configuration").
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	case exists:
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'saveloc explain config_load_failed' for details").
				Wrap(err).
				BuildError()
		}
	default:
		path = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so validate the result.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables and the config file").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("instance.imagefs", defaults.Instance.ImageFS)
	v.SetDefault("instance.container_id", defaults.Instance.ContainerID)
	v.SetDefault("instance.wine_user", defaults.Instance.WineUser)
	v.SetDefault("instance.wine_prefix", defaults.Instance.WinePrefix)
	v.SetDefault("instance.game_install", defaults.Instance.GameInstall)
	v.SetDefault("instance.external_storage", defaults.Instance.ExternalStorage)
	v.SetDefault("instance.steam_userdata", defaults.Instance.SteamUserData)
	v.SetDefault("account.steam_id", defaults.Account.SteamID)
	v.SetDefault("manifests", defaults.Manifests)
	v.SetDefault("scan.concurrency", defaults.Scan.Concurrency)
	v.SetDefault("scan.watch_debounce_ms", defaults.Scan.WatchDebounceMS)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// This does not use cueutil.ParseAndDecode: the file decodes into a map so
// Viper keeps its defaults and env overrides for fields the file leaves out.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to the platform config file
// (or opts.ConfigFilePath) and returns its path. An existing file is only
// replaced when force is set.
func WriteDefault(opts LoadOptions, force bool) (string, error) {
	path := opts.ConfigFilePath
	if path == "" {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return "", err
		}
		path = filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	}

	if fileExists(path) && !force {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// saveloc configuration file\n\n")

	sb.WriteString("instance: {\n")
	writeOptional(&sb, "imagefs", cfg.Instance.ImageFS)
	writeOptional(&sb, "container_id", cfg.Instance.ContainerID)
	writeOptional(&sb, "wine_user", cfg.Instance.WineUser)
	writeOptional(&sb, "wine_prefix", cfg.Instance.WinePrefix)
	writeOptional(&sb, "game_install", cfg.Instance.GameInstall)
	writeOptional(&sb, "external_storage", cfg.Instance.ExternalStorage)
	writeOptional(&sb, "steam_userdata", cfg.Instance.SteamUserData)
	sb.WriteString("}\n")

	if cfg.Account.SteamID != "" {
		fmt.Fprintf(&sb, "\naccount: steam_id: %q\n", cfg.Account.SteamID)
	}

	sb.WriteString("\nmanifests: [")
	for i, m := range cfg.Manifests {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", string(m))
	}
	sb.WriteString("]\n")

	sb.WriteString("\nscan: {\n")
	fmt.Fprintf(&sb, "\tconcurrency:       %d\n", cfg.Scan.Concurrency)
	fmt.Fprintf(&sb, "\twatch_debounce_ms: %d\n", cfg.Scan.WatchDebounceMS)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func writeOptional(sb *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(sb, "\t%s: %q\n", key, value)
	}
}
