// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"slices"
	"testing"

	"github.com/pyship/pyship/pkg/buildspec"
)

func TestColorSchemeIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value ColorScheme
		want  bool
	}{
		{ColorSchemeAuto, true},
		{ColorSchemeDark, true},
		{ColorSchemeLight, true},
		{"", false},
		{"neon", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()
			got, errs := tt.value.IsValid()
			if got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
			if !tt.want && !errors.Is(errs[0], ErrInvalidColorScheme) {
				t.Errorf("error should wrap ErrInvalidColorScheme, got %v", errs[0])
			}
		})
	}
}

func TestConfigIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad color", mutate: func(c *Config) { c.UI.ColorScheme = "neon" }, wantErr: ErrInvalidColorScheme},
		{name: "bad preset", mutate: func(c *Config) { c.Build.Preset = "nightly" }, wantErr: buildspec.ErrInvalidPreset},
		{name: "bad index", mutate: func(c *Config) { c.Install.IndexURL = "pypi.org" }, wantErr: ErrInvalidIndexURL},
		{name: "bad extra index", mutate: func(c *Config) { c.Install.ExtraIndexURLs = []string{"file:///wheels"} }, wantErr: ErrInvalidIndexURL},
		{name: "blank candidate", mutate: func(c *Config) { c.Interpreter.Candidates = []string{"py", " "} }, wantErr: ErrInvalidCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()
			if tt.wantErr == nil {
				if !valid {
					t.Errorf("IsValid() errors = %v", errs)
				}
				return
			}
			if valid {
				t.Fatal("IsValid() = true, want false")
			}
			if !errors.Is(errs[0], ErrInvalidConfig) || !errors.Is(errs[0], tt.wantErr) {
				t.Errorf("error %v should wrap ErrInvalidConfig and %v", errs[0], tt.wantErr)
			}
		})
	}
}

func TestEffectivePreset(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if got := cfg.EffectivePreset(); got != buildspec.DefaultPreset {
		t.Errorf("EffectivePreset() = %q, want %q", got, buildspec.DefaultPreset)
	}
	cfg.Build.Preset = buildspec.PresetDirect
	if got := cfg.EffectivePreset(); got != buildspec.PresetDirect {
		t.Errorf("EffectivePreset() = %q, want direct", got)
	}
}

func TestApplyTo(t *testing.T) {
	t.Parallel()

	p, err := buildspec.DefaultProject(buildspec.PresetFallback)
	if err != nil {
		t.Fatal(err)
	}

	DefaultConfig().ApplyTo(p)
	if !slices.Equal(p.Interpreter.Candidates, []string{"python", "py", "python3"}) || p.Install.IndexURL != "" {
		t.Errorf("empty overrides changed the project: %+v", p)
	}

	cfg := DefaultConfig()
	cfg.Interpreter.Candidates = []string{"py"}
	cfg.Install.IndexURL = "https://pypi.example/simple"
	cfg.Install.ExtraIndexURLs = []string{"https://mirror.example/simple"}
	cfg.ApplyTo(p)

	if !slices.Equal(p.Interpreter.Candidates, []string{"py"}) {
		t.Errorf("candidates = %v", p.Interpreter.Candidates)
	}
	if p.Install.IndexURL != cfg.Install.IndexURL || len(p.Install.ExtraIndexURLs) != 1 {
		t.Errorf("install = %+v", p.Install)
	}
}

func TestGlamourStyle(t *testing.T) {
	t.Parallel()

	if ColorSchemeLight.GlamourStyle() != "light" || ColorSchemeDark.GlamourStyle() != "dark" || ColorSchemeAuto.GlamourStyle() != "auto" {
		t.Error("unexpected glamour style mapping")
	}
}
