// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the pyship command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pyship/pyship/internal/pipeline"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "pyship",
		Short: "Package a Python application into a standalone executable",
		Long: TitleStyle.Render("pyship") + SubtitleStyle.Render(" - package a Python application into a standalone executable") + `

pyship finds a Python interpreter, prepares an isolated environment,
installs the application's dependencies and runs PyInstaller on the
entry script. The build is described by 'pyship.cue'; without one, a
built-in preset is used.

` + SubtitleStyle.Render("Examples:") + `
  pyship build                 Build with pyship.cue or the default preset
  pyship build --preset direct Build without a virtual environment
  pyship build --dry-run       Show the commands a build would run
  pyship doctor                Check the interpreter and environment
  pyship init --preset venv    Write pyship.cue and requirements.txt`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.loadConfig(cmd.Context())
			if app.flags.noColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			slog.SetDefault(slog.New(newLogHandler(app.stderr, app.verbose(), app.flags.noColor)))
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "show tool output and debug logs")
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pyship/config.cue)")
	pf.StringVarP(&app.flags.dir, "dir", "C", "", "project directory (default is the working directory)")
	pf.BoolVar(&app.flags.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newBuildCommand(app),
		newDoctorCommand(app),
		newInitCommand(app),
		newCleanCommand(app),
		newConfigCommand(app),
	)
	return root
}

// newLogHandler routes slog records through a charmbracelet logger.
func newLogHandler(w io.Writer, verbose, noColor bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "pyship", Level: log.WarnLevel})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if noColor {
		logger.SetColorProfile(termenv.Ascii)
	}
	return logger
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// errorHandler prints errors fang receives, except those already shown.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the CLI and exits with the build's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(pipeline.ExitCode(err))
	}
}
