// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pyship/pyship/internal/config"
	"github.com/pyship/pyship/internal/watch"
	"github.com/pyship/pyship/pkg/buildspec"
)

// runWatch builds once, then rebuilds on every batch of source changes
// until ctx is cancelled. The project is reloaded before each rebuild so
// edits to pyship.cue take effect.
func runWatch(ctx context.Context, app *App, flags *buildFlags, cfg *config.Config, project *buildspec.Project) error {
	_ = buildOnce(ctx, app, project)

	wcfg := watch.ForProject(project)
	wcfg.OnChange = func(ctx context.Context, changed []string) error {
		fmt.Fprintf(app.stdout, "\n%s %s\n\n", CmdStyle.Render("→"), "Changed: "+strings.Join(changed, ", "))
		reloaded, err := app.loadProject(flags.source, cfg)
		if err != nil {
			app.renderError(err)
			return nil
		}
		_ = buildOnce(ctx, app, reloaded)
		fmt.Fprintf(app.stdout, "\n%s Watching for changes...\n", CmdStyle.Render("→"))
		return nil
	}

	w, err := watch.New(wcfg)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	slog.Debug("watching", "dir", wcfg.BaseDir, "patterns", wcfg.Patterns, "ignore", wcfg.Ignore)
	fmt.Fprintf(app.stdout, "\n%s Watching for changes (Ctrl+C to stop)...\n", CmdStyle.Render("→"))
	return w.Run(ctx)
}
