// SPDX-License-Identifier: MPL-2.0

package buildspec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// EnvironmentNone installs into whichever interpreter was found.
	EnvironmentNone EnvironmentMode = "none"
	// EnvironmentVenv creates (or reuses) a virtual environment.
	EnvironmentVenv EnvironmentMode = "venv"

	// StrategyBinaryOnly restricts pip to precompiled wheels.
	StrategyBinaryOnly InstallStrategy = "binary_only"
	// StrategyPreferBinary prefers wheels but may build from source.
	StrategyPreferBinary InstallStrategy = "prefer_binary"
	// StrategyAny applies no binary preference.
	StrategyAny InstallStrategy = "any"

	// SuccessArtifact judges a build by the presence of the output file.
	SuccessArtifact SuccessCheck = "artifact"
	// SuccessExitCode judges a build by the packaging tool's exit code.
	SuccessExitCode SuccessCheck = "exit_code"

	// DefaultFileName is the project file looked up in the working directory.
	DefaultFileName = "pyship.cue"
)

var (
	// ErrInvalidEnvironmentMode is returned for unknown environment modes.
	ErrInvalidEnvironmentMode = errors.New("invalid environment mode")
	// ErrInvalidInstallStrategy is returned for unknown install strategies.
	ErrInvalidInstallStrategy = errors.New("invalid install strategy")
	// ErrInvalidSuccessCheck is returned for unknown success checks.
	ErrInvalidSuccessCheck = errors.New("invalid success check")
	// ErrInvalidProject is wrapped by ValidationErrors.
	ErrInvalidProject = errors.New("invalid project")
)

type (
	// EnvironmentMode selects direct installation or an isolated environment.
	EnvironmentMode string

	// InstallStrategy selects pip's binary preference.
	InstallStrategy string

	// SuccessCheck selects how a packaging run is judged.
	SuccessCheck string

	// Project is the decoded pyship.cue.
	Project struct {
		// Name is the executable name, without extension.
		Name string `json:"name"`
		// Entry is the Python script to bundle, relative to the project file.
		Entry string `json:"entry"`
		// Windowed hides the console window of the produced executable.
		Windowed bool `json:"windowed"`
		// OneFile bundles everything into a single executable.
		OneFile bool `json:"one_file"`
		// Icon is an optional .ico file.
		Icon string `json:"icon,omitempty"`
		// OutputDir receives the artifact.
		OutputDir string `json:"output_dir"`
		// WorkDir is PyInstaller's intermediate directory.
		WorkDir string `json:"work_dir"`

		Interpreter  InterpreterSpec   `json:"interpreter"`
		Environment  EnvironmentSpec   `json:"environment"`
		Dependencies DependencySpec    `json:"dependencies"`
		Install      InstallSpec       `json:"install"`
		Packager     PackagerSpec      `json:"packager"`
		Hooks        HookSpec          `json:"hooks"`
		EnvFiles     []string          `json:"env_files,omitempty"`
		Env          map[string]string `json:"env,omitempty"`

		// FilePath is where the project was loaded from, or where a generated
		// project would live. Empty anchors relative paths at the working directory.
		FilePath string `json:"-"`
	}

	// InterpreterSpec controls interpreter discovery.
	InterpreterSpec struct {
		// Candidates are tried in order on the search path.
		Candidates []string `json:"candidates"`
		// MinVersion is the lowest acceptable version, for example "3.8".
		MinVersion string `json:"min_version,omitempty"`
	}

	// EnvironmentSpec controls the isolated dependency environment.
	EnvironmentSpec struct {
		Mode EnvironmentMode `json:"mode"`
		// Dir is the environment directory, relative to the project file.
		Dir string `json:"dir"`
	}

	// DependencySpec lists what to install.
	DependencySpec struct {
		Packages []Package `json:"packages,omitempty"`
		// Manifest is a requirements file or pyproject.toml, relative to the project file.
		Manifest string `json:"manifest,omitempty"`
	}

	// Package is one inline dependency. An empty Version is unpinned.
	Package struct {
		Name    string `json:"name"`
		Version string `json:"version,omitempty"`
	}

	// InstallSpec controls how dependencies are installed.
	InstallSpec struct {
		Strategy InstallStrategy `json:"strategy"`
		// Fallback retries once without the binary restriction when the
		// preferred install fails.
		Fallback bool `json:"fallback"`
		// UpgradeTools upgrades pip before installing.
		UpgradeTools bool `json:"upgrade_tools"`
		// IndexURL and ExtraIndexURLs are passed to pip when set.
		IndexURL       string   `json:"index_url,omitempty"`
		ExtraIndexURLs []string `json:"extra_index_urls,omitempty"`
	}

	// PackagerSpec controls the packaging tool invocation.
	PackagerSpec struct {
		// Module is run as "python -m <Module>".
		Module string `json:"module"`
		// Args are appended before the entry script.
		Args    []string     `json:"args,omitempty"`
		Success SuccessCheck `json:"success"`
		// Clean asks the tool to discard its cache before building.
		Clean bool `json:"clean"`
	}

	// HookSpec holds shell snippets run before and after packaging.
	HookSpec struct {
		PreBuild  string `json:"pre_build,omitempty"`
		PostBuild string `json:"post_build,omitempty"`
	}

	// InvalidEnumError reports an unrecognized enum value.
	InvalidEnumError struct {
		Field    string
		Value    string
		Allowed  []string
		sentinel error
	}
)

// Error implements the error interface.
func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("%s: %q must be one of: %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Unwrap returns the enum-specific sentinel.
func (e *InvalidEnumError) Unwrap() error { return e.sentinel }

// IsValid returns whether the mode is recognized.
func (m EnvironmentMode) IsValid() (bool, []error) {
	switch m {
	case EnvironmentNone, EnvironmentVenv:
		return true, nil
	default:
		return false, []error{&InvalidEnumError{
			Field: "environment.mode", Value: string(m),
			Allowed: []string{string(EnvironmentNone), string(EnvironmentVenv)}, sentinel: ErrInvalidEnvironmentMode,
		}}
	}
}

// IsValid returns whether the strategy is recognized.
func (s InstallStrategy) IsValid() (bool, []error) {
	switch s {
	case StrategyBinaryOnly, StrategyPreferBinary, StrategyAny:
		return true, nil
	default:
		return false, []error{&InvalidEnumError{
			Field: "install.strategy", Value: string(s),
			Allowed:  []string{string(StrategyBinaryOnly), string(StrategyPreferBinary), string(StrategyAny)},
			sentinel: ErrInvalidInstallStrategy,
		}}
	}
}

// Restricted reports whether the strategy limits pip to some binary preference.
func (s InstallStrategy) Restricted() bool {
	return s == StrategyBinaryOnly || s == StrategyPreferBinary
}

// IsValid returns whether the check is recognized.
func (c SuccessCheck) IsValid() (bool, []error) {
	switch c {
	case SuccessArtifact, SuccessExitCode:
		return true, nil
	default:
		return false, []error{&InvalidEnumError{
			Field: "packager.success", Value: string(c),
			Allowed: []string{string(SuccessArtifact), string(SuccessExitCode)}, sentinel: ErrInvalidSuccessCheck,
		}}
	}
}

// Requirement renders the package for pip: "name" or "name==version".
func (p Package) Requirement() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "==" + p.Version
}

// BaseDir is the directory relative paths resolve against.
func (p *Project) BaseDir() string {
	if p.FilePath == "" {
		return "."
	}
	return filepath.Dir(p.FilePath)
}

// Resolve returns path relative to BaseDir unless it is absolute.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir(), filepath.FromSlash(path))
}

// UsesVenv reports whether builds run inside a virtual environment.
func (p *Project) UsesVenv() bool {
	return p.Environment.Mode == EnvironmentVenv
}
