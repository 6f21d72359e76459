// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/pyship/pyship/internal/packager"

	"github.com/spf13/cobra"
)

func newCleanCommand(app *App) *cobra.Command {
	var src projectSource
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove packaging leftovers",
		Long: `Remove packaging leftovers: the work directory, the generated .spec
file and the built executable. The virtual environment is kept.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runClean(app, src)
		},
	}
	cmd.Flags().StringVarP(&src.path, "project", "p", "", "project file (default is pyship.cue when present)")
	cmd.Flags().StringVar(&src.preset, "preset", "", "clean a built-in preset instead of a project file")
	cmd.MarkFlagsMutuallyExclusive("project", "preset")
	return cmd
}

func runClean(app *App, src projectSource) error {
	cfg, err := app.config()
	if err != nil {
		return app.fail(err)
	}
	project, err := app.loadProject(src, cfg)
	if err != nil {
		return app.fail(err)
	}

	removed, err := packager.Clean(project, app.GOOS)
	for _, path := range removed {
		fmt.Fprintf(app.stdout, "%s Removed %s\n", SuccessStyle.Render("✓"), path)
	}
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	if len(removed) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Nothing to clean."))
	}
	return nil
}
