// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pyship/pyship/internal/config"
	"github.com/pyship/pyship/pkg/buildspec"

	"github.com/spf13/cobra"
)

// configKeys are the keys accepted by "config set".
var configKeys = []string{
	"ui.color_scheme", "ui.verbose", "ui.pause",
	"build.preset",
	"install.index_url", "install.extra_index_urls",
	"interpreter.candidates",
}

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pyship configuration",
		Long: `Manage pyship configuration.

Configuration is stored in:
  - Linux: ~/.config/pyship/config.cue
  - macOS: ~/Library/Application Support/pyship/config.cue
  - Windows: %APPDATA%\pyship\config.cue

Every key can be overridden with a PYSHIP_<SECTION>_<KEY> environment
variable, for example PYSHIP_UI_PAUSE=false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", SubtitleStyle.Render("-"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a configuration value. List values are comma-separated.\n\nKeys: " +
			strings.Join(configKeys, ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), app, args[0], args[1])
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, source, err := app.Config.LoadWithSource(ctx, config.LoadOptions{ConfigFilePath: app.flags.configPath, BaseDir: app.flags.dir})
	if err != nil {
		return app.fail(err)
	}

	if source == "" {
		source = SubtitleStyle.Render("(defaults and environment)")
	}
	fmt.Fprintf(app.stdout, "%s %s\n\n", CmdStyle.Render("Config file:"), source)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func setConfigValue(ctx context.Context, app *App, key, value string) error {
	target := app.flags.configPath
	if target == "" {
		defaultPath, err := config.ConfigFilePath()
		if err != nil {
			return err
		}
		target = defaultPath
	}

	// Only the target file is read, and environment overrides are left out
	// so they never end up persisted.
	cfg := config.DefaultConfig()
	if isFile(target) {
		loaded, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: target, IgnoreEnv: true})
		if err != nil {
			return app.fail(err)
		}
		cfg = loaded
	}

	switch key {
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	case "ui.verbose", "ui.pause":
		b, parseErr := strconv.ParseBool(value)
		if parseErr != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		if key == "ui.verbose" {
			cfg.UI.Verbose = b
		} else {
			cfg.UI.Pause = b
		}
	case "build.preset":
		cfg.Build.Preset = buildspec.Preset(value)
	case "install.index_url":
		cfg.Install.IndexURL = value
	case "install.extra_index_urls":
		cfg.Install.ExtraIndexURLs = splitList(value)
	case "interpreter.candidates":
		cfg.Interpreter.Candidates = splitList(value)
	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(configKeys, ", "))
	}

	if ok, errs := cfg.IsValid(); !ok {
		return errs[0]
	}
	if err := config.SaveTo(target, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(app.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}

func splitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
