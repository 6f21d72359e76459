// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pyship/pyship/pkg/buildspec"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidIndexURL is returned for package index URLs that are not http(s).
	ErrInvalidIndexURL = errors.New("invalid index URL")
	// ErrInvalidCandidate is returned for blank interpreter candidates.
	ErrInvalidCandidate = errors.New("invalid interpreter candidate")
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

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the user configuration.
	Config struct {
		// UI configures terminal output
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Build selects defaults for projects without a pyship.cue
		Build BuildConfig `json:"build" mapstructure:"build"`
		// Install overrides the package index for every project
		Install InstallConfig `json:"install" mapstructure:"install"`
		// Interpreter overrides interpreter discovery for every project
		Interpreter InterpreterConfig `json:"interpreter" mapstructure:"interpreter"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Pause waits for a key press before exiting after a build
		Pause bool `json:"pause" mapstructure:"pause"`
	}

	// BuildConfig holds build defaults.
	BuildConfig struct {
		// Preset is used when no pyship.cue exists and --preset is not given.
		// Empty means buildspec.DefaultPreset.
		Preset buildspec.Preset `json:"preset" mapstructure:"preset"`
	}

	// InstallConfig overrides pip index settings.
	InstallConfig struct {
		IndexURL       string   `json:"index_url" mapstructure:"index_url"`
		ExtraIndexURLs []string `json:"extra_index_urls" mapstructure:"extra_index_urls"`
	}

	// InterpreterConfig overrides interpreter discovery.
	InterpreterConfig struct {
		Candidates []string `json:"candidates" mapstructure:"candidates"`
	}
)

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

// GlamourStyle maps the scheme to a glamour standard style name.
func (cs ColorScheme) GlamourStyle() string {
	switch cs {
	case ColorSchemeLight:
		return "light"
	case ColorSchemeDark:
		return "dark"
	default:
		return "auto"
	}
}

// IsValid returns whether the Config has valid fields. The CUE schema
// already checks files; this also covers values that arrive through
// PYSHIP_ environment variables.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Build.Preset != "" {
		if valid, fieldErrs := c.Build.Preset.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	for _, u := range append([]string{c.Install.IndexURL}, c.Install.ExtraIndexURLs...) {
		if u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidIndexURL, u))
		}
	}
	for i, cand := range c.Interpreter.Candidates {
		if strings.TrimSpace(cand) == "" {
			errs = append(errs, fmt.Errorf("%w: interpreter.candidates[%d] is blank", ErrInvalidCandidate, i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// EffectivePreset returns the configured preset or buildspec.DefaultPreset.
func (c Config) EffectivePreset() buildspec.Preset {
	if c.Build.Preset == "" {
		return buildspec.DefaultPreset
	}
	return c.Build.Preset
}

// ApplyTo overlays the user-level overrides onto a project.
func (c Config) ApplyTo(p *buildspec.Project) {
	if len(c.Interpreter.Candidates) > 0 {
		p.Interpreter.Candidates = append([]string(nil), c.Interpreter.Candidates...)
	}
	if c.Install.IndexURL != "" {
		p.Install.IndexURL = c.Install.IndexURL
	}
	if len(c.Install.ExtraIndexURLs) > 0 {
		p.Install.ExtraIndexURLs = append([]string(nil), c.Install.ExtraIndexURLs...)
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
			Pause:       true,
		},
		Build:       BuildConfig{Preset: ""},
		Install:     InstallConfig{ExtraIndexURLs: []string{}},
		Interpreter: InterpreterConfig{Candidates: []string{}},
	}
}
