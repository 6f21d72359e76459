// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyship/pyship/internal/config"
	"github.com/pyship/pyship/internal/testutil"
	"github.com/pyship/pyship/pkg/buildspec"
)

// useConfigDir points the config package at a temporary directory.
// Not parallel: the override is package-level state.
func useConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	config.SetConfigDirOverride(dir)
	t.Cleanup(config.Reset)
	return dir
}

func TestConfigShow(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Build.Preset = buildspec.PresetVenv

	f := newCLIFixture(t)
	f.config = staticConfig{cfg: cfg}
	if err := f.run(t, "config", "show"); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	out := f.stdout.String()
	for _, want := range []string{"defaults and environment", "ui: {", `preset: "venv"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output lacks %q:\n%s", want, out)
		}
	}
}

func TestConfigPathInitAndSet(t *testing.T) {
	dir := useConfigDir(t)
	want := filepath.Join(dir, "config.cue")

	f := newCLIFixture(t)
	f.config = staticConfig{}
	if err := f.run(t, "config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if got := strings.TrimSpace(f.stdout.String()); got != want {
		t.Errorf("config path = %q, want %q", got, want)
	}

	f.stdout.Reset()
	if err := f.run(t, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	testutil.AssertExists(t, want)

	f.stdout.Reset()
	if err := f.run(t, "config", "init"); err != nil {
		t.Fatalf("second config init error = %v", err)
	}
	if !strings.Contains(f.stdout.String(), "already exists") {
		t.Errorf("second init output = %q", f.stdout.String())
	}

	// config set reads through the real provider.
	app := NewApp(Dependencies{Stdout: &f.stdout, Stderr: &f.stderr})
	for _, args := range [][]string{
		{"config", "set", "build.preset", "direct"},
		{"config", "set", "ui.pause", "false"},
		{"config", "set", "interpreter.candidates", "py, python3"},
	} {
		root := NewRootCommand(app)
		root.SetArgs(args)
		if err := root.ExecuteContext(t.Context()); err != nil {
			t.Fatalf("%v error = %v", args, err)
		}
	}

	loaded, err := config.NewProvider().Load(t.Context(), config.LoadOptions{ConfigDirPath: dir, BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Build.Preset != buildspec.PresetDirect || loaded.UI.Pause {
		t.Errorf("loaded build=%+v ui=%+v", loaded.Build, loaded.UI)
	}
	if got := strings.Join(loaded.Interpreter.Candidates, ","); got != "py,python3" {
		t.Errorf("candidates = %q", got)
	}
}

func TestConfigSetRejectsBadValues(t *testing.T) {
	useConfigDir(t)

	tests := [][]string{
		{"ui.pause", "sometimes"},
		{"ui.color_scheme", "purple"},
		{"build.preset", "nightly"},
		{"install.index_url", "ftp://mirror"},
		{"container_engine", "docker"},
	}
	for _, kv := range tests {
		t.Run(kv[0], func(t *testing.T) {
			app := NewApp(Dependencies{Stdout: &strings.Builder{}, Stderr: &strings.Builder{}})
			root := NewRootCommand(app)
			root.SetArgs(append([]string{"config", "set"}, kv...))
			if err := root.ExecuteContext(t.Context()); err == nil {
				t.Errorf("config set %s %s succeeded", kv[0], kv[1])
			}
		})
	}
}

func TestConfigSetKeepsEnvironmentOut(t *testing.T) {
	dir := useConfigDir(t)
	t.Setenv("PYSHIP_INSTALL_INDEX_URL", "https://temporary.example/simple")
	t.Setenv("PYSHIP_BUILD_PRESET", "direct")

	app := NewApp(Dependencies{Stdout: &strings.Builder{}, Stderr: &strings.Builder{}})
	root := NewRootCommand(app)
	root.SetArgs([]string{"config", "set", "ui.pause", "false"})
	if err := root.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.cue"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	for _, leaked := range []string{"temporary.example", `preset: "direct"`} {
		if strings.Contains(string(data), leaked) {
			t.Errorf("environment override %q was saved:\n%s", leaked, data)
		}
	}
	if !strings.Contains(string(data), "pause:") {
		t.Errorf("config file lacks the new value:\n%s", data)
	}
}

func TestConfigSetHonorsConfigFlag(t *testing.T) {
	defaultDir := useConfigDir(t)
	custom := filepath.Join(t.TempDir(), "team.cue")
	testutil.MustWriteFile(t, custom, `build: preset: "venv"`+"\n")

	app := NewApp(Dependencies{Stdout: &strings.Builder{}, Stderr: &strings.Builder{}})
	root := NewRootCommand(app)
	root.SetArgs([]string{"--config", custom, "config", "set", "ui.pause", "false"})
	if err := root.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("config set error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(defaultDir, "config.cue")); !os.IsNotExist(err) {
		t.Errorf("default config file should not be written, stat err = %v", err)
	}
	loaded, err := config.NewProvider().Load(t.Context(), config.LoadOptions{ConfigFilePath: custom, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.UI.Pause || loaded.Build.Preset != buildspec.PresetVenv {
		t.Errorf("loaded ui=%+v build=%+v, want pause off and preset kept", loaded.UI, loaded.Build)
	}
}
