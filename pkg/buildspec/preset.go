// SPDX-License-Identifier: MPL-2.0

package buildspec

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PresetDirect installs unpinned packages into the found interpreter and
	// checks for the artifact.
	PresetDirect Preset = "direct"
	// PresetPinned installs pinned packages into the found interpreter and
	// trusts the packaging tool's exit code.
	PresetPinned Preset = "pinned"
	// PresetVenv installs requirements.txt into a virtual environment.
	PresetVenv Preset = "venv"
	// PresetFallback installs pinned packages into a virtual environment,
	// binary wheels only, retrying once without the restriction.
	PresetFallback Preset = "fallback"

	// DefaultPreset is used when neither a flag nor the user configuration picks one.
	DefaultPreset = PresetFallback

	// DefaultEntry is the invoice compressor's entry point.
	DefaultEntry = "app.py"
	// DefaultName is the invoice compressor's executable name.
	DefaultName = "CompresseurFactures"
	// DefaultManifest is the requirements file used by PresetVenv.
	DefaultManifest = "requirements.txt"
)

// ErrInvalidPreset is returned for unknown preset names.
var ErrInvalidPreset = errors.New("invalid preset")

// Preset names one of the packaging policies pyship ships with.
type Preset string

// defaultPackages are the invoice compressor's dependencies: image
// handling, PDF handling and the packaging tool.
var defaultPackages = []Package{
	{Name: "pillow", Version: "10.4.0"},
	{Name: "pypdf", Version: "4.3.1"},
	{Name: "pyinstaller", Version: "6.10.0"},
}

// Presets lists every preset in display order.
func Presets() []Preset {
	return []Preset{PresetDirect, PresetPinned, PresetVenv, PresetFallback}
}

// IsValid returns whether the preset exists.
func (p Preset) IsValid() (bool, []error) {
	for _, known := range Presets() {
		if p == known {
			return true, nil
		}
	}
	names := make([]string, 0, len(Presets()))
	for _, known := range Presets() {
		names = append(names, string(known))
	}
	return false, []error{fmt.Errorf("%w: %q (one of: %s)", ErrInvalidPreset, p, strings.Join(names, ", "))}
}

// Description is a one-line summary for help output.
func (p Preset) Description() string {
	switch p {
	case PresetDirect:
		return "install unpinned packages directly, success when the executable exists"
	case PresetPinned:
		return "install pinned packages directly, success when the packager exits 0"
	case PresetVenv:
		return "install requirements.txt into .venv, success when the executable exists"
	case PresetFallback:
		return "install pinned wheels into .venv, retry once from source, success when the executable exists"
	default:
		return ""
	}
}

// DefaultPackages returns the built-in dependency list, pinned or not.
func DefaultPackages(pinned bool) []Package {
	out := make([]Package, len(defaultPackages))
	copy(out, defaultPackages)
	if !pinned {
		for i := range out {
			out[i].Version = ""
		}
	}
	return out
}

// DefaultRequirements renders DefaultPackages(true) as a requirements file.
func DefaultRequirements() string {
	var sb strings.Builder
	for _, pkg := range DefaultPackages(true) {
		sb.WriteString(pkg.Requirement())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DefaultProject builds the invoice compressor project for preset.
func DefaultProject(preset Preset) (*Project, error) {
	if ok, errs := preset.IsValid(); !ok {
		return nil, errs[0]
	}

	p := &Project{
		Name:     DefaultName,
		Entry:    DefaultEntry,
		Windowed: true,
		OneFile:  true,
		Install:  InstallSpec{UpgradeTools: true},
		Packager: PackagerSpec{Success: SuccessArtifact},
	}

	switch preset {
	case PresetDirect:
		p.Environment.Mode = EnvironmentNone
		p.Dependencies.Packages = DefaultPackages(false)
		p.Install.Strategy = StrategyAny
	case PresetPinned:
		p.Environment.Mode = EnvironmentNone
		p.Dependencies.Packages = DefaultPackages(true)
		p.Install.Strategy = StrategyAny
		p.Packager.Success = SuccessExitCode
	case PresetVenv:
		p.Environment.Mode = EnvironmentVenv
		p.Dependencies.Manifest = DefaultManifest
		p.Install.Strategy = StrategyAny
	case PresetFallback:
		p.Environment.Mode = EnvironmentVenv
		p.Dependencies.Packages = DefaultPackages(true)
		p.Install.Strategy = StrategyBinaryOnly
		p.Install.Fallback = true
	}

	p.ApplyDefaults()
	return p, nil
}
