// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pyship/pyship/internal/config"
	"github.com/pyship/pyship/pkg/buildspec"
)

// projectSource names how the build is defined: an explicit file, a preset
// name, or neither (pyship.cue if present, else the configured preset).
type projectSource struct {
	path   string
	preset string
}

// loadProject resolves the project for a command and applies the user
// configuration on top of it.
func (a *App) loadProject(src projectSource, cfg *config.Config) (*buildspec.Project, error) {
	dir := a.projectDir()

	var (
		project *buildspec.Project
		err     error
	)
	switch {
	case src.path != "":
		path := src.path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		project, err = buildspec.Load(path)
	case src.preset != "":
		project, err = presetProject(buildspec.Preset(src.preset), dir)
	default:
		path := filepath.Join(dir, buildspec.DefaultFileName)
		if _, statErr := os.Stat(path); statErr == nil {
			project, err = buildspec.Load(path)
		} else {
			slog.Debug("no project file, using preset", "path", path, "preset", cfg.EffectivePreset())
			project, err = presetProject(cfg.EffectivePreset(), dir)
		}
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyTo(project)
	return project, nil
}

// projectDir is the --dir flag or the working directory.
func (a *App) projectDir() string {
	if a.flags.dir == "" {
		return "."
	}
	return a.flags.dir
}

func presetProject(preset buildspec.Preset, dir string) (*buildspec.Project, error) {
	project, err := buildspec.DefaultProject(preset)
	if err != nil {
		return nil, err
	}
	project.FilePath = filepath.Join(dir, buildspec.DefaultFileName)
	return project, nil
}
