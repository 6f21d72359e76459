// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/pyship/pyship/internal/issue"
	"github.com/pyship/pyship/internal/probe"
	"github.com/pyship/pyship/internal/runtime"
	"github.com/pyship/pyship/pkg/platform"
)

// ErrEnvironmentSetup is returned when the environment cannot be created.
var ErrEnvironmentSetup = errors.New("virtual environment setup failed")

type (
	// Environment is a ready virtual environment.
	Environment struct {
		// Dir is the absolute environment directory.
		Dir string
		// Created is false when an existing environment was reused.
		Created bool

		goos string
	}

	// Manager creates environments with "<python> -m venv".
	Manager struct {
		Runner runtime.Runner
		// GOOS selects the environment layout; defaults to runtime.GOOS.
		GOOS   string
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewManager creates a Manager for the host OS.
func NewManager(runner runtime.Runner, stdout, stderr io.Writer) *Manager {
	return &Manager{Runner: runner, GOOS: goruntime.GOOS, Stdout: stdout, Stderr: stderr}
}

func (m *Manager) goos() string {
	if m.GOOS == "" {
		return goruntime.GOOS
	}
	return m.GOOS
}

// Open returns the environment at dir without creating it. ok is false when
// dir holds no interpreter.
func (m *Manager) Open(dir string) (env *Environment, ok bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	env = &Environment{Dir: abs, goos: m.goos()}
	info, err := os.Stat(env.Interpreter())
	return env, err == nil && !info.IsDir()
}

// Ensure returns the environment at dir, creating it with interp when dir
// has no interpreter yet. An existing environment is never recreated.
func (m *Manager) Ensure(ctx context.Context, interp *probe.Interpreter, dir string) (*Environment, error) {
	env, ok := m.Open(dir)
	if ok {
		slog.Debug("reusing virtual environment", "dir", env.Dir)
		return env, nil
	}

	res := m.Runner.Run(ctx, m.CreateInvocation(interp, env.Dir))
	if !res.Success() {
		cause := res.Error
		if cause == nil {
			cause = fmt.Errorf("%w: venv exited with code %s", ErrEnvironmentSetup, res.ExitCode)
		} else {
			cause = fmt.Errorf("%w: %w", ErrEnvironmentSetup, cause)
		}
		return nil, setupError(env.Dir, cause)
	}

	if _, ok := m.Open(env.Dir); !ok {
		return nil, setupError(env.Dir, fmt.Errorf("%w: %s was not created", ErrEnvironmentSetup, env.Interpreter()))
	}

	env.Created = true
	slog.Debug("created virtual environment", "dir", env.Dir)
	return env, nil
}

// CreateInvocation is the command Ensure runs to create an environment.
func (m *Manager) CreateInvocation(interp *probe.Interpreter, dir string) runtime.Invocation {
	return runtime.Invocation{
		Program: interp.Path,
		Args:    []string{"-m", "venv", dir},
		Env:     m.Env,
		Stdout:  m.Stdout,
		Stderr:  m.Stderr,
	}
}

func setupError(dir string, cause error) error {
	return issue.NewErrorContext().
		WithOperation("create virtual environment").
		WithResource(dir).
		WithSuggestion("Delete the directory and build again").
		WithSuggestion("Make sure the venv module is available (Debian/Ubuntu: apt install python3-venv)").
		WithSuggestion("Set environment.mode to \"none\" to install into the interpreter directly").
		Wrap(cause).
		BuildError()
}

// Interpreter is the environment's python executable.
func (e *Environment) Interpreter() string {
	return platform.VenvPython(e.Dir, e.goos)
}

// BinDir is the directory an activated environment puts first on PATH.
func (e *Environment) BinDir() string {
	return platform.VenvBinDir(e.Dir, e.goos)
}

// Activate returns base as an activated environment would see it:
// VIRTUAL_ENV set, the bin directory first on PATH and PYTHONHOME removed.
func (e *Environment) Activate(base []string) []string {
	foldCase := e.goos == platform.Windows

	pathKey := "PATH"
	path := e.BinDir()
	for i := len(base) - 1; i >= 0; i-- {
		k, v, _ := strings.Cut(base[i], "=")
		if k == "PATH" || (foldCase && strings.EqualFold(k, "PATH")) {
			pathKey = k
			if v != "" {
				path += platform.PathListSeparator(e.goos) + v
			}
			break
		}
	}

	return runtime.MergeEnv(base, map[string]string{
		"VIRTUAL_ENV": e.Dir,
		pathKey:       path,
	}, []string{"PYTHONHOME"}, foldCase)
}
