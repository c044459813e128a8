// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saveloc/saveloc/internal/instance"
	"github.com/saveloc/saveloc/pkg/savepattern"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultConcurrency is the default number of patterns scanned in parallel.
	DefaultConcurrency = 4
	// DefaultWatchDebounceMS is the default quiet period before a re-scan.
	DefaultWatchDebounceMS = 500
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidManifestPath is the sentinel error wrapped by InvalidManifestPathError.
	ErrInvalidManifestPath = errors.New("invalid manifest path")
	// ErrInvalidScanConfig is the sentinel error wrapped by InvalidScanConfigError.
	ErrInvalidScanConfig = errors.New("invalid scan config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// ManifestPath is a manifest file or a directory of manifests.
	ManifestPath string

	// InvalidManifestPathError is returned when a ManifestPath is empty or
	// whitespace-only.
	InvalidManifestPathError struct {
		Value ManifestPath
	}

	// InvalidScanConfigError collects the field errors of a ScanConfig.
	InvalidScanConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Instance locates the compatibility-layer instance.
		Instance InstanceConfig `json:"instance" mapstructure:"instance"`
		// Account is the default signed-in account.
		Account AccountConfig `json:"account" mapstructure:"account"`
		// Manifests lists manifest files and directories, loaded in order.
		Manifests []ManifestPath `json:"manifests" mapstructure:"manifests"`
		Scan      ScanConfig     `json:"scan" mapstructure:"scan"`
		UI        UIConfig       `json:"ui" mapstructure:"ui"`
	}

	// InstanceConfig mirrors instance.Layout.
	InstanceConfig struct {
		ImageFS         string `json:"imagefs" mapstructure:"imagefs"`
		ContainerID     string `json:"container_id" mapstructure:"container_id"`
		WineUser        string `json:"wine_user" mapstructure:"wine_user"`
		WinePrefix      string `json:"wine_prefix" mapstructure:"wine_prefix"`
		GameInstall     string `json:"game_install" mapstructure:"game_install"`
		ExternalStorage string `json:"external_storage" mapstructure:"external_storage"`
		SteamUserData   string `json:"steam_userdata" mapstructure:"steam_userdata"`
	}

	// AccountConfig holds the default account.
	AccountConfig struct {
		// SteamID accepts every form savepattern.ParseSteamID does.
		SteamID string `json:"steam_id" mapstructure:"steam_id"`
	}

	// ScanConfig tunes file scanning.
	ScanConfig struct {
		// Concurrency bounds parallel pattern scans.
		Concurrency int `json:"concurrency" mapstructure:"concurrency"`
		// WatchDebounceMS is the quiet period, in milliseconds, before watch
		// mode re-scans.
		WatchDebounceMS int `json:"watch_debounce_ms" mapstructure:"watch_debounce_ms"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// IsConfigured reports whether an instance location is set.
func (c InstanceConfig) IsConfigured() bool {
	return c.ImageFS != "" || c.WinePrefix != ""
}

// Layout converts the configuration into an instance layout.
func (c InstanceConfig) Layout() instance.Layout {
	return instance.Layout{
		ImageFS:         c.ImageFS,
		ContainerID:     c.ContainerID,
		WineUser:        c.WineUser,
		WinePrefix:      c.WinePrefix,
		GameInstall:     c.GameInstall,
		ExternalStorage: c.ExternalStorage,
		SteamUserData:   c.SteamUserData,
	}
}

// Identity parses the configured account. ok is false when none is set.
func (c AccountConfig) Identity() (id savepattern.Identity, ok bool, err error) {
	if strings.TrimSpace(c.SteamID) == "" {
		return savepattern.Identity{}, false, nil
	}
	id, err = savepattern.ParseSteamID(c.SteamID)
	if err != nil {
		return savepattern.Identity{}, false, err
	}
	return id, true, nil
}

// IsValid returns whether the AccountConfig has valid fields.
func (c AccountConfig) IsValid() (bool, []error) {
	if _, _, err := c.Identity(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

// IsValid returns whether the ScanConfig has valid fields.
func (c ScanConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Concurrency < 1 || c.Concurrency > 64 {
		errs = append(errs, fmt.Errorf("concurrency %d out of range [1, 64]", c.Concurrency))
	}
	if c.WatchDebounceMS < 0 || c.WatchDebounceMS > 60000 {
		errs = append(errs, fmt.Errorf("watch_debounce_ms %d out of range [0, 60000]", c.WatchDebounceMS))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidScanConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidScanConfigError.
func (e *InvalidScanConfigError) Error() string {
	return fmt.Sprintf("invalid scan config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidScanConfig for errors.Is() compatibility.
func (e *InvalidScanConfigError) Unwrap() error { return ErrInvalidScanConfig }

// IsValid returns whether the Config has valid fields. The instance section is
// checked only when configured, since an unset instance is a normal state.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if c.Instance.IsConfigured() {
		if valid, fieldErrs := c.Instance.Layout().IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Account.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, m := range c.Manifests {
		if valid, fieldErrs := m.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Scan.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is()
// matches both the sentinel and the sentinels of individual fields.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// String returns the string representation of the ManifestPath.
func (p ManifestPath) String() string { return string(p) }

// IsValid returns whether the ManifestPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p ManifestPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidManifestPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidManifestPathError.
func (e *InvalidManifestPathError) Error() string {
	return fmt.Sprintf("invalid manifest path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidManifestPath for errors.Is() compatibility.
func (e *InvalidManifestPathError) Unwrap() error { return ErrInvalidManifestPath }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Instance: InstanceConfig{
			WineUser: instance.DefaultWineUser,
		},
		Manifests: []ManifestPath{},
		Scan: ScanConfig{
			Concurrency:     DefaultConcurrency,
			WatchDebounceMS: DefaultWatchDebounceMS,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
