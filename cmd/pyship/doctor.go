// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pyship/pyship/internal/install"
	"github.com/pyship/pyship/internal/packager"
	"github.com/pyship/pyship/internal/pipeline"
	"github.com/pyship/pyship/internal/probe"
	"github.com/pyship/pyship/internal/venv"
	"github.com/pyship/pyship/pkg/buildspec"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

const (
	checkOK   = "ok"
	checkWarn = "warn"
	checkFail = "fail"
	checkInfo = "-"
)

type doctorCheck struct {
	name   string
	status string
	detail string
}

func newDoctorCommand(app *App) *cobra.Command {
	var src projectSource
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the interpreter and build environment",
		Long: `Check the interpreter and build environment without building.

doctor runs the same interpreter probe as a build and reports whether the
virtual environment, entry script and dependency manifest are in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), app, src)
		},
	}
	cmd.Flags().StringVarP(&src.path, "project", "p", "", "project file (default is pyship.cue when present)")
	cmd.Flags().StringVar(&src.preset, "preset", "", "check a built-in preset instead of a project file")
	cmd.MarkFlagsMutuallyExclusive("project", "preset")
	return cmd
}

func runDoctor(ctx context.Context, app *App, src projectSource) error {
	cfg, err := app.config()
	if err != nil {
		return app.fail(err)
	}
	project, err := app.loadProject(src, cfg)
	if err != nil {
		return app.fail(err)
	}

	checks, probeErr := doctorChecks(ctx, app, project)
	renderChecks(app.stdout, checks)
	if probeErr != nil {
		return app.fail(probeErr)
	}
	return nil
}

// doctorChecks inspects the project without changing anything on disk.
// The returned error is the probe failure, if any.
func doctorChecks(ctx context.Context, app *App, project *buildspec.Project) ([]doctorCheck, error) {
	var checks []doctorCheck

	env, err := pipeline.New(project, app.pipelineOptions(nil)).BaseEnv()
	if err != nil {
		return nil, err
	}
	pr := &probe.Probe{Runner: app.Runner, LookPath: app.LookPath, Env: env}
	interp, probeErr := pr.Find(ctx, project.Interpreter)
	if probeErr != nil {
		checks = append(checks, doctorCheck{"interpreter", checkFail, "none of the candidates is usable"})
	} else {
		detail := fmt.Sprintf("%s (%s)", interp.Path, interp.Version)
		checks = append(checks, doctorCheck{"interpreter", checkOK, detail})
	}

	envCheck := doctorCheck{name: "environment", status: checkInfo, detail: "not used (installs into the interpreter)"}
	if project.UsesVenv() {
		m := &venv.Manager{GOOS: app.GOOS}
		env, exists := m.Open(project.Resolve(project.Environment.Dir))
		if exists {
			envCheck.status, envCheck.detail = checkOK, env.Dir
		} else {
			envCheck.status, envCheck.detail = checkWarn, env.Dir+" will be created"
		}
	}
	checks = append(checks, envCheck)

	entry := project.Resolve(project.Entry)
	if isFile(entry) {
		checks = append(checks, doctorCheck{"entry", checkOK, entry})
	} else {
		checks = append(checks, doctorCheck{"entry", checkFail, entry + " is missing"})
	}

	deps, err := install.Resolve(project)
	switch {
	case err == nil:
		detail := fmt.Sprintf("%d package(s)", len(deps.Requirements))
		if len(deps.RequirementFiles) > 0 {
			detail += fmt.Sprintf(", %d requirements file(s)", len(deps.RequirementFiles))
		}
		checks = append(checks, doctorCheck{"dependencies", checkOK, detail})
	default:
		checks = append(checks, doctorCheck{"dependencies", checkWarn, err.Error()})
	}

	artifact := packager.ArtifactPath(project, app.GOOS)
	if isFile(artifact) {
		checks = append(checks, doctorCheck{"artifact", checkInfo, artifact + " (from a previous build)"})
	} else {
		checks = append(checks, doctorCheck{"artifact", checkInfo, artifact + " (not built yet)"})
	}

	return checks, probeErr
}

func renderChecks(w io.Writer, checks []doctorCheck) {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, []string{c.name, c.status, c.detail})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtitleStyle).
		Headers("CHECK", "STATUS", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Inherit(TitleStyle)
			}
			if col != 1 {
				return style
			}
			switch checks[row].status {
			case checkOK:
				return style.Inherit(SuccessStyle)
			case checkWarn:
				return style.Inherit(WarningStyle)
			case checkFail:
				return style.Inherit(ErrorStyle)
			}
			return style.Inherit(SubtitleStyle)
		})
	fmt.Fprintln(w, t.Render())
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
