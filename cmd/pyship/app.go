// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	goruntime "runtime"

	"github.com/pyship/pyship/internal/config"
	"github.com/pyship/pyship/internal/issue"
	"github.com/pyship/pyship/internal/pipeline"
	"github.com/pyship/pyship/internal/runtime"

	"golang.org/x/term"
)

type (
	// App is the composition root of the CLI. Command handlers reach the
	// host (processes, search path, terminal) only through it, so tests can
	// substitute every piece.
	App struct {
		Config   config.Provider
		Runner   runtime.Runner
		Hooks    pipeline.HookRunner
		// LookPath resolves interpreter candidates; nil searches the PATH of
		// the build environment.
		LookPath func(file string) (string, error)
		GOOS     string
		// Env is the base environment for builds; nil means os.Environ().
		Env []string

		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer
		isTerminal func() bool

		flags  rootFlags
		cfg    *config.Config
		cfgErr error
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config     config.Provider
		Runner     runtime.Runner
		Hooks      pipeline.HookRunner
		LookPath   func(file string) (string, error)
		GOOS       string
		Env        []string
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
		IsTerminal func() bool
	}

	rootFlags struct {
		verbose    bool
		configPath string
		dir        string
		noColor    bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = runtime.NewNativeRunner()
	}
	if deps.Hooks == nil {
		deps.Hooks = runtime.NewVirtualShell()
	}
	if deps.GOOS == "" {
		deps.GOOS = goruntime.GOOS
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.IsTerminal == nil {
		deps.IsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}

	return &App{
		Config:     deps.Config,
		Runner:     deps.Runner,
		Hooks:      deps.Hooks,
		LookPath:   deps.LookPath,
		GOOS:       deps.GOOS,
		Env:        deps.Env,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		isTerminal: deps.IsTerminal,
	}
}

// loadConfig reads the user configuration once per invocation. A failure
// is remembered so that commands which can run without it still work.
func (a *App) loadConfig(ctx context.Context) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath, BaseDir: a.flags.dir})
	if err != nil {
		a.cfg, a.cfgErr = config.DefaultConfig(), err
		return
	}
	a.cfg = cfg
}

// config returns the loaded configuration, or a configuration error.
func (a *App) config() (*config.Config, error) {
	if a.cfgErr != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrConfiguration, a.cfgErr)
	}
	if a.cfg == nil {
		return config.DefaultConfig(), nil
	}
	return a.cfg, nil
}

func (a *App) verbose() bool {
	return a.flags.verbose || (a.cfg != nil && a.cfg.UI.Verbose)
}

// glamourStyle picks the issue rendering style.
func (a *App) glamourStyle() string {
	if a.flags.noColor {
		return "notty"
	}
	if a.cfg == nil {
		return config.ColorSchemeAuto.GlamourStyle()
	}
	return a.cfg.UI.ColorScheme.GlamourStyle()
}

// pipelineOptions wires the App's host access into a pipeline run.
func (a *App) pipelineOptions(reporter pipeline.Reporter) pipeline.Options {
	return pipeline.Options{
		Runner:   a.Runner,
		Hooks:    a.Hooks,
		Reporter: reporter,
		LookPath: a.LookPath,
		GOOS:     a.GOOS,
		Env:      a.Env,
		Stdout:   a.subprocessOutput(a.stdout),
		Stderr:   a.subprocessOutput(a.stderr),
	}
}

// subprocessOutput hides tool output unless verbose. Failing tools still
// have their last output lines printed by renderError.
func (a *App) subprocessOutput(w io.Writer) io.Writer {
	if a.verbose() {
		return w
	}
	return io.Discard
}

// renderError prints err and, when one applies, its help page.
func (a *App) renderError(err error) {
	var ae *issue.ActionableError
	msg := err.Error()
	if errors.As(err, &ae) {
		msg = ae.Format(a.verbose())
	}
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+msg)

	id := pipeline.IssueFor(err)
	if id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render(a.glamourStyle())
		if renderErr != nil {
			return
		}
		fmt.Fprint(a.stderr, rendered)
	}
}

// fail renders err and converts it into an already-reported ExitError.
func (a *App) fail(err error) error {
	a.renderError(err)
	return &ExitError{Code: pipeline.ExitCode(err)}
}

// pause waits for Enter so a double-clicked console window stays open.
// It never blocks when stdin is not a terminal.
func (a *App) pause(enabled bool) {
	if !enabled || !a.isTerminal() {
		return
	}
	fmt.Fprint(a.stdout, SubtitleStyle.Render("Press Enter to close..."))
	_, _ = bufio.NewReader(a.stdin).ReadString('\n')
}
