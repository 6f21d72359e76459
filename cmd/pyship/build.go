// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pyship/pyship/internal/pipeline"
	"github.com/pyship/pyship/pkg/buildspec"

	"github.com/spf13/cobra"
)

type buildFlags struct {
	source  projectSource
	dryRun  bool
	watch   bool
	noPause bool
}

func newBuildCommand(app *App) *cobra.Command {
	flags := &buildFlags{}

	var presets strings.Builder
	for _, p := range buildspec.Presets() {
		fmt.Fprintf(&presets, "  %-9s %s\n", p, p.Description())
	}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the executable",
		Long: `Build the executable.

The project is read from --project, or pyship.cue in the project directory.
Without a project file the preset from --preset or the user configuration
is used (default "` + string(buildspec.DefaultPreset) + `").

` + SubtitleStyle.Render("Presets:") + "\n" + presets.String(),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), app, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.source.path, "project", "p", "", "project file (default is pyship.cue when present)")
	cmd.Flags().StringVar(&flags.source.preset, "preset", "", "build a built-in preset instead of a project file")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "print the commands a build would run")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rebuild when sources change")
	cmd.Flags().BoolVar(&flags.noPause, "no-pause", false, "do not wait for Enter after the build")
	cmd.MarkFlagsMutuallyExclusive("project", "preset")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "watch")
	return cmd
}

func runBuild(ctx context.Context, app *App, flags *buildFlags) error {
	cfg, err := app.config()
	if err != nil {
		return app.fail(err)
	}
	pause := cfg.UI.Pause && !flags.noPause && !flags.dryRun && !flags.watch

	project, err := app.loadProject(flags.source, cfg)
	if err != nil {
		app.renderError(err)
		app.pause(pause)
		return &ExitError{Code: pipeline.ExitCode(err)}
	}

	switch {
	case flags.dryRun:
		renderPlan(app.stdout, project, pipeline.New(project, app.pipelineOptions(nil)).Plan())
		return nil
	case flags.watch:
		return runWatch(ctx, app, flags, cfg, project)
	}

	err = buildOnce(ctx, app, project)
	app.pause(pause)
	if err != nil {
		return &ExitError{Code: pipeline.ExitCode(err)}
	}
	return nil
}

// buildOnce runs the pipeline and prints the verdict. The returned error
// has already been shown.
func buildOnce(ctx context.Context, app *App, project *buildspec.Project) error {
	fmt.Fprintf(app.stdout, "%s %s %s\n\n", TitleStyle.Render("Building"), project.Name, SubtitleStyle.Render("from "+project.Entry))

	reporter := &stepReporter{w: app.stdout, verbose: app.verbose()}
	report, err := pipeline.New(project, app.pipelineOptions(reporter)).Run(ctx)
	if err != nil {
		renderFailureBanner(app.stdout, report, err)
		if !errors.Is(err, context.Canceled) {
			app.renderError(err)
		}
		return err
	}
	renderSuccessBanner(app.stdout, report)
	return nil
}

func renderSuccessBanner(w io.Writer, report *pipeline.Report) {
	body := SuccessStyle.Bold(true).Render("BUILD SUCCEEDED") + "\n" +
		"Executable: " + CmdStyle.Render(report.Artifact) + "\n" +
		SubtitleStyle.Render(fmt.Sprintf("%s in %s", report.ID, report.Duration.Round(time.Millisecond)))
	fmt.Fprintln(w, successBannerStyle.Render(body))
}

func renderFailureBanner(w io.Writer, report *pipeline.Report, err error) {
	failed := "build"
	for _, step := range report.Steps {
		if step.Status == pipeline.StatusFailed {
			failed = string(step.Name)
		}
	}
	body := ErrorStyle.Render("BUILD FAILED") + "\n" +
		fmt.Sprintf("Step %q failed (exit code %d)", failed, pipeline.ExitCode(err))
	fmt.Fprintln(w, failureBannerStyle.Render(body))
}

// renderPlan prints what a build would do.
func renderPlan(w io.Writer, project *buildspec.Project, plan []pipeline.PlannedStep) {
	fmt.Fprintln(w, TitleStyle.Render("Dry Run"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render("Project:"), project.Name)
	fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render("Entry:"), project.Resolve(project.Entry))
	fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render("Success:"), project.Packager.Success)
	fmt.Fprintln(w)

	for _, step := range plan {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render(stepCounter(step.Name)), TitleStyle.Render(string(step.Name)))
		for _, c := range step.Commands {
			fmt.Fprintf(w, "    $ %s\n", c)
		}
		if step.Note != "" {
			fmt.Fprintf(w, "    %s\n", SubtitleStyle.Render(step.Note))
		}
	}
}
