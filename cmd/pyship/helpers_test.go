// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pyship/pyship/internal/config"
	"github.com/pyship/pyship/internal/runtime"
	"github.com/pyship/pyship/internal/runtime/runtimetest"
	"github.com/pyship/pyship/internal/testutil"
	"github.com/pyship/pyship/pkg/platform"
)

// staticConfig serves a fixed configuration instead of reading the
// user's config directory.
type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error) {
	cfg, _, err := s.LoadWithSource(ctx, opts)
	return cfg, err
}

func (s staticConfig) LoadWithSource(context.Context, config.LoadOptions) (*config.Config, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	if s.cfg == nil {
		return config.DefaultConfig(), "", nil
	}
	return s.cfg, "", nil
}

type cliFixture struct {
	dir      string
	runner   *runtimetest.Runner
	config   staticConfig
	stdin    string
	terminal bool
	noPython bool
	stdout   bytes.Buffer
	stderr   bytes.Buffer
}

// newCLIFixture prepares a project directory holding app.py.
func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "app.py"), "print('factures')\n")
	return &cliFixture{dir: dir, runner: runtimetest.New()}
}

// withTools registers a working python, venv module and PyInstaller after
// any handlers the test added.
func (f *cliFixture) withTools(t *testing.T) *cliFixture {
	t.Helper()
	f.runner.
		HandleContains("--version", runtimetest.Output("Python 3.12.4\n")).
		HandleContains("-m venv", runtimetest.Do(func(inv runtime.Invocation) {
			testutil.MustWriteFile(t, platform.VenvPython(inv.Args[len(inv.Args)-1], platform.Linux), "")
		})).
		HandleContains("-m PyInstaller", runtimetest.Do(func(inv runtime.Invocation) {
			testutil.MustWriteFile(t, filepath.Join(inv.Dir, argValue(inv.Args, "--distpath"), argValue(inv.Args, "--name")), "ELF")
		}))
	return f
}

// run executes pyship with args against the fixture directory.
func (f *cliFixture) run(t *testing.T, args ...string) error {
	t.Helper()
	app := NewApp(Dependencies{
		Config: f.config,
		Runner: f.runner,
		LookPath: func(file string) (string, error) {
			if f.noPython {
				return "", errors.New("executable file not found in $PATH")
			}
			return "/usr/bin/" + file, nil
		},
		GOOS:       platform.Linux,
		Env:        []string{"PATH=/usr/bin"},
		Stdin:      strings.NewReader(f.stdin),
		Stdout:     &f.stdout,
		Stderr:     &f.stderr,
		IsTerminal: func() bool { return f.terminal },
	})
	root := NewRootCommand(app)
	root.SetOut(&f.stdout)
	root.SetErr(&f.stderr)
	root.SetArgs(append([]string{"--dir", f.dir}, args...))
	return root.ExecuteContext(t.Context())
}

func (f *cliFixture) path(elem ...string) string {
	return filepath.Join(append([]string{f.dir}, elem...)...)
}

func argValue(args []string, flag string) string {
	if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
		return args[i+1]
	}
	return ""
}

// exitCode extracts the ExitError code; nil maps to 0 and other errors to -1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}
