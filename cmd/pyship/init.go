// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyship/pyship/pkg/buildspec"

	"github.com/spf13/cobra"
)

// ErrProjectExists is returned by init when pyship.cue is already present.
var ErrProjectExists = errors.New("project file already exists")

type initFlags struct {
	preset string
	force  bool
}

func newInitCommand(app *App) *cobra.Command {
	flags := &initFlags{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create pyship.cue in the project directory",
		Long: `Create pyship.cue in the project directory from a preset.

The venv preset also writes requirements.txt with the pinned packages
when the project has none.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(app, flags)
		},
	}
	cmd.Flags().StringVar(&flags.preset, "preset", "", "preset to start from (default is the configured preset)")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite existing files")
	return cmd
}

func runInit(app *App, flags *initFlags) error {
	cfg, err := app.config()
	if err != nil {
		return app.fail(err)
	}
	preset := cfg.EffectivePreset()
	if flags.preset != "" {
		preset = buildspec.Preset(flags.preset)
	}
	project, err := presetProject(preset, app.projectDir())
	if err != nil {
		return app.fail(err)
	}

	if _, statErr := os.Stat(project.FilePath); statErr == nil && !flags.force {
		return app.fail(fmt.Errorf("%w: %s (use --force to overwrite)", ErrProjectExists, project.FilePath))
	}
	if err := os.WriteFile(project.FilePath, []byte(buildspec.Generate(project)), 0o644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	fmt.Fprintf(app.stdout, "%s Created %s (%s preset)\n", SuccessStyle.Render("✓"), project.FilePath, preset)

	if manifest := project.Dependencies.Manifest; manifest != "" {
		path := project.Resolve(manifest)
		if _, statErr := os.Stat(path); statErr != nil || flags.force {
			if err := os.WriteFile(path, []byte(buildspec.DefaultRequirements()), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", manifest, err)
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
		} else {
			fmt.Fprintf(app.stdout, "%s Kept existing %s\n", SubtitleStyle.Render("-"), path)
		}
	}

	fmt.Fprintln(app.stdout)
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Next steps:"))
	fmt.Fprintf(app.stdout, "  1. Check the entry script %s exists\n", filepath.ToSlash(project.Entry))
	fmt.Fprintln(app.stdout, "  2. Run 'pyship doctor' to check the interpreter")
	fmt.Fprintln(app.stdout, "  3. Run 'pyship build'")
	return nil
}
