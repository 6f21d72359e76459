// SPDX-License-Identifier: MPL-2.0

package buildspec

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyship/pyship/internal/testutil"
)

func TestParseMinimalAppliesDefaults(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(`
name:  "CompresseurFactures"
entry: "app.py"
`), "pyship.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !p.Windowed || !p.OneFile {
		t.Error("windowed and one_file should default to true")
	}
	if p.OutputDir != "dist" || p.WorkDir != "build" {
		t.Errorf("dirs = %q/%q, want dist/build", p.OutputDir, p.WorkDir)
	}
	if got := strings.Join(p.Interpreter.Candidates, ","); got != "python,py,python3" {
		t.Errorf("candidates = %s", got)
	}
	if p.Environment.Mode != EnvironmentVenv || p.Environment.Dir != ".venv" {
		t.Errorf("environment = %+v", p.Environment)
	}
	if p.Install.Strategy != StrategyBinaryOnly || !p.Install.Fallback || !p.Install.UpgradeTools {
		t.Errorf("install = %+v", p.Install)
	}
	if p.Packager.Module != "PyInstaller" || p.Packager.Success != SuccessArtifact {
		t.Errorf("packager = %+v", p.Packager)
	}
	if p.FilePath != "pyship.cue" {
		t.Errorf("FilePath = %q", p.FilePath)
	}
}

func TestParseFull(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(`
name:       "Compresseur"
entry:      "src/app.pyw"
windowed:   false
icon:       "assets/app.ico"
output_dir: "out"
interpreter: {
	candidates:  ["py"]
	min_version: "3.9"
}
environment: mode: "none"
dependencies: {
	packages: [{name: "pillow", version: "10.4.0"}, {name: "pypdf"}]
	manifest: "requirements.txt"
}
install: {
	strategy:  "prefer_binary"
	fallback:  true
	index_url: "https://pypi.example/simple"
}
packager: {
	args:    ["--hidden-import", "PIL._tkinter_finder"]
	success: "exit_code"
	clean:   true
}
hooks: pre_build: "echo pre"
env_files: [".env?"]
env: PYTHONUTF8: "1"
`), filepath.Join("proj", "pyship.cue"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if p.Windowed || p.Icon != "assets/app.ico" || p.OutputDir != "out" {
		t.Errorf("top-level fields = %+v", p)
	}
	if p.Interpreter.MinVersion != "3.9" || len(p.Interpreter.Candidates) != 1 {
		t.Errorf("interpreter = %+v", p.Interpreter)
	}
	if p.UsesVenv() {
		t.Error("environment.mode none should not use a venv")
	}
	if len(p.Dependencies.Packages) != 2 || p.Dependencies.Packages[1].Requirement() != "pypdf" {
		t.Errorf("packages = %+v", p.Dependencies.Packages)
	}
	if p.Packager.Success != SuccessExitCode || !p.Packager.Clean || len(p.Packager.Args) != 2 {
		t.Errorf("packager = %+v", p.Packager)
	}
	if p.Hooks.PreBuild != "echo pre" || p.Env["PYTHONUTF8"] != "1" || p.EnvFiles[0] != ".env?" {
		t.Errorf("hooks/env = %+v %+v %+v", p.Hooks, p.Env, p.EnvFiles)
	}
	if got := p.Resolve("requirements.txt"); got != filepath.Join("proj", "requirements.txt") {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestParseSchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing entry", content: `name: "x"`},
		{name: "entry not python", content: `name: "x", entry: "app.exe"`},
		{name: "unknown strategy", content: `name: "x", entry: "app.py", install: strategy: "source"`},
		{name: "unknown success check", content: `name: "x", entry: "app.py", packager: success: "maybe"`},
		{name: "unknown field", content: `name: "x", entry: "app.py", compress: true`},
		{name: "bad version pin", content: `name: "x", entry: "app.py", dependencies: packages: [{name: "pillow", version: ">=10"}]`},
		{name: "bad manifest", content: `name: "x", entry: "app.py", dependencies: manifest: "Pipfile"`},
		{name: "syntax error", content: `name: "x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.content), "pyship.cue"); err == nil {
				t.Errorf("Parse(%q) should fail", tt.content)
			}
		})
	}
}

func TestParseGoValidation(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`
name:  "x"
entry: "app.py"
install: {strategy: "any", fallback: true}
dependencies: packages: [{name: "Pillow"}, {name: "pillow"}]
`), "pyship.cue")
	if err == nil {
		t.Fatal("Parse() should reject fallback with strategy any and duplicate packages")
	}
	if !errors.Is(err, ErrInvalidProject) {
		t.Errorf("error should wrap ErrInvalidProject: %v", err)
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Errorf("want 2 validation errors, got %v", err)
	}
}

func TestParseFallbackDefaultFollowsStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		install      string
		wantStrategy InstallStrategy
		wantFallback bool
	}{
		{name: "unset", install: "{}", wantStrategy: StrategyBinaryOnly, wantFallback: true},
		{name: "binary only", install: `{strategy: "binary_only"}`, wantStrategy: StrategyBinaryOnly, wantFallback: true},
		{name: "prefer binary", install: `{strategy: "prefer_binary"}`, wantStrategy: StrategyPreferBinary, wantFallback: true},
		{name: "any", install: `{strategy: "any"}`, wantStrategy: StrategyAny, wantFallback: false},
		{name: "binary only without fallback", install: `{strategy: "binary_only", fallback: false}`, wantStrategy: StrategyBinaryOnly, wantFallback: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Parse([]byte("name: \"x\"\nentry: \"app.py\"\ninstall: "+tt.install+"\n"), "pyship.cue")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if p.Install.Strategy != tt.wantStrategy || p.Install.Fallback != tt.wantFallback {
				t.Errorf("install = %+v, want strategy %s fallback %v", p.Install, tt.wantStrategy, tt.wantFallback)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Load() error = %v, want ErrProjectNotFound", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFileName)
	testutil.MustWriteFile(t, path, "name: \"x\"\nentry: \"app.py\"\n")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.BaseDir() != filepath.Dir(path) {
		t.Errorf("BaseDir() = %q", p.BaseDir())
	}
}
