// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"

	"github.com/pyship/pyship/internal/install"
	"github.com/pyship/pyship/internal/issue"
	"github.com/pyship/pyship/internal/packager"
	"github.com/pyship/pyship/internal/probe"
	"github.com/pyship/pyship/internal/venv"
	"github.com/pyship/pyship/pkg/buildspec"
)

// Process exit codes for failed builds.
const (
	ExitOther               = 1
	ExitInterpreterNotFound = 2
	ExitDependencyInstall   = 3
	ExitPackaging           = 4
	ExitConfiguration       = 5
)

var (
	// ErrConfiguration marks problems in pyship.cue, env files, manifests
	// or the user configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrHook is returned when a pre- or post-build hook fails.
	ErrHook = errors.New("build hook failed")
)

// ExitCode maps err to the process exit code. nil maps to 0.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, probe.ErrInterpreterNotFound):
		return ExitInterpreterNotFound
	case errors.Is(err, install.ErrDependencyInstall):
		return ExitDependencyInstall
	case errors.Is(err, packager.ErrPackaging):
		return ExitPackaging
	case isConfiguration(err):
		return ExitConfiguration
	default:
		return ExitOther
	}
}

// IssueFor returns the help page for err, or 0 when none applies.
func IssueFor(err error) issue.Id {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, probe.ErrInterpreterNotFound):
		return issue.InterpreterNotFoundId
	case errors.Is(err, venv.ErrEnvironmentSetup):
		return issue.EnvironmentSetupFailedId
	case errors.Is(err, install.ErrDependencyInstall):
		return issue.DependencyInstallFailedId
	case errors.Is(err, packager.ErrPackaging):
		return issue.PackagingFailedId
	case errors.Is(err, buildspec.ErrProjectNotFound):
		return issue.ProjectFileNotFoundId
	case errors.Is(err, buildspec.ErrInvalidProject):
		return issue.ProjectParseErrorId
	case errors.Is(err, ErrHook):
		return issue.HookFailedId
	case isConfiguration(err):
		return issue.ConfigLoadFailedId
	default:
		return 0
	}
}

func isConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, buildspec.ErrInvalidProject) ||
		errors.Is(err, buildspec.ErrProjectNotFound) ||
		errors.Is(err, buildspec.ErrInvalidPreset)
}
