// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pyship/pyship/internal/issue"
	"github.com/pyship/pyship/internal/runtime/runtimetest"
	"github.com/pyship/pyship/internal/testutil"
	"github.com/pyship/pyship/pkg/buildspec"
)

var pinned = Dependencies{Requirements: []string{"pillow==10.4.0", "pypdf==4.3.1", "pyinstaller==6.10.0"}}

func TestStrategyArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strategy buildspec.InstallStrategy
		want     []string
		relaxed  buildspec.InstallStrategy
	}{
		{buildspec.StrategyBinaryOnly, []string{"--only-binary=:all:"}, buildspec.StrategyPreferBinary},
		{buildspec.StrategyPreferBinary, []string{"--prefer-binary"}, buildspec.StrategyAny},
		{buildspec.StrategyAny, nil, buildspec.StrategyAny},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			t.Parallel()
			if got := StrategyArgs(tt.strategy); !slices.Equal(got, tt.want) {
				t.Errorf("StrategyArgs() = %v, want %v", got, tt.want)
			}
			if got := Relaxed(tt.strategy); got != tt.relaxed {
				t.Errorf("Relaxed() = %q, want %q", got, tt.relaxed)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	t.Parallel()

	i := &Installer{Spec: buildspec.InstallSpec{
		IndexURL:       "https://pypi.example/simple",
		ExtraIndexURLs: []string{"https://a.example", "https://b.example"},
	}}
	got := i.Args(Dependencies{Requirements: []string{"pypdf"}, RequirementFiles: []string{"requirements.txt"}}, buildspec.StrategyBinaryOnly)
	want := []string{
		"-m", "pip", "install", "--only-binary=:all:",
		"--index-url", "https://pypi.example/simple",
		"--extra-index-url", "https://a.example", "--extra-index-url", "https://b.example",
		"pypdf", "-r", "requirements.txt",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Args() =\n %v\nwant\n %v", got, want)
	}
}

func TestInstall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		spec         buildspec.InstallSpec
		failOnly     bool // fail only the --only-binary attempt
		failAll      bool
		wantAttempts int
		wantFallback bool
		wantErr      bool
	}{
		{name: "preferred succeeds", spec: buildspec.InstallSpec{Strategy: buildspec.StrategyBinaryOnly, Fallback: true}, wantAttempts: 1},
		{name: "fallback succeeds", spec: buildspec.InstallSpec{Strategy: buildspec.StrategyBinaryOnly, Fallback: true}, failOnly: true, wantAttempts: 2, wantFallback: true},
		{name: "fallback fails", spec: buildspec.InstallSpec{Strategy: buildspec.StrategyBinaryOnly, Fallback: true}, failAll: true, wantAttempts: 2, wantFallback: true, wantErr: true},
		{name: "no fallback configured", spec: buildspec.InstallSpec{Strategy: buildspec.StrategyBinaryOnly}, failOnly: true, wantAttempts: 1, wantErr: true},
		{name: "any never falls back", spec: buildspec.InstallSpec{Strategy: buildspec.StrategyAny, Fallback: true}, failAll: true, wantAttempts: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := runtimetest.New()
			switch {
			case tt.failOnly:
				runner.HandleContains("--only-binary", runtimetest.Exit(1))
			case tt.failAll:
				runner.HandleContains("pip install", runtimetest.Exit(1))
			}

			i := &Installer{Runner: runner, Python: "python", Spec: tt.spec}
			report, err := i.Install(context.Background(), pinned)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Install() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrDependencyInstall) {
				t.Errorf("error should wrap ErrDependencyInstall: %v", err)
			}
			if len(report.Attempts) != tt.wantAttempts || runner.Count("pip install") != tt.wantAttempts {
				t.Errorf("attempts = %d (runner saw %d), want %d", len(report.Attempts), runner.Count("pip install"), tt.wantAttempts)
			}
			if report.UsedFallback != tt.wantFallback {
				t.Errorf("UsedFallback = %v, want %v", report.UsedFallback, tt.wantFallback)
			}
			if tt.wantFallback && report.Attempts[1].Strategy != buildspec.StrategyPreferBinary {
				t.Errorf("fallback strategy = %q", report.Attempts[1].Strategy)
			}
		})
	}
}

func TestInstallSuggestsFallback(t *testing.T) {
	t.Parallel()

	runner := runtimetest.New().HandleContains("pip install", runtimetest.Exit(1))
	i := &Installer{Runner: runner, Python: "python", Spec: buildspec.InstallSpec{Strategy: buildspec.StrategyBinaryOnly}}

	_, err := i.Install(context.Background(), pinned)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %v", err)
	}
	if !slices.ContainsFunc(ae.Suggestions, func(s string) bool { return strings.Contains(s, "install.fallback") }) {
		t.Errorf("suggestions should mention install.fallback: %v", ae.Suggestions)
	}
}

func TestInstallNothing(t *testing.T) {
	t.Parallel()

	i := &Installer{Runner: runtimetest.New(), Python: "python"}
	if _, err := i.Install(context.Background(), Dependencies{}); !errors.Is(err, ErrNoDependencies) {
		t.Errorf("Install() error = %v", err)
	}
}

func TestUpgradeTooling(t *testing.T) {
	t.Parallel()

	runner := runtimetest.New()
	i := &Installer{Runner: runner, Python: "/venv/bin/python"}
	if err := i.UpgradeTooling(context.Background()); err != nil {
		t.Fatalf("UpgradeTooling() error = %v", err)
	}
	if runner.Count("/venv/bin/python -m pip install --upgrade pip setuptools wheel") != 1 {
		t.Errorf("unexpected calls %v", runner.Calls())
	}

	failing := &Installer{Runner: runtimetest.New().HandleContains("--upgrade", runtimetest.Exit(2)), Python: "python"}
	if err := failing.UpgradeTooling(context.Background()); !errors.Is(err, ErrToolingUpgrade) {
		t.Errorf("UpgradeTooling() error = %v, want ErrToolingUpgrade", err)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("inline and requirements file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.MustWriteFile(t, filepath.Join(dir, "requirements.txt"), "pillow==10.4.0\n")
		p := &buildspec.Project{
			FilePath:     filepath.Join(dir, buildspec.DefaultFileName),
			Dependencies: buildspec.DependencySpec{Packages: []buildspec.Package{{Name: "pypdf"}}, Manifest: "requirements.txt"},
		}
		deps, err := Resolve(p)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !slices.Equal(deps.Requirements, []string{"pypdf"}) || !slices.Equal(deps.RequirementFiles, []string{filepath.Join(dir, "requirements.txt")}) {
			t.Errorf("Resolve() = %+v", deps)
		}
	})

	t.Run("pyproject expands inline", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.MustWriteFile(t, filepath.Join(dir, "pyproject.toml"), "[project]\nname = \"x\"\ndependencies = [\"pillow>=10\", \"pypdf==4.3.1\"]\n")
		p := &buildspec.Project{
			FilePath:     filepath.Join(dir, buildspec.DefaultFileName),
			Dependencies: buildspec.DependencySpec{Manifest: "pyproject.toml"},
		}
		deps, err := Resolve(p)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !slices.Equal(deps.Requirements, []string{"pillow>=10", "pypdf==4.3.1"}) || len(deps.RequirementFiles) != 0 {
			t.Errorf("Resolve() = %+v", deps)
		}
	})

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()

		p := &buildspec.Project{
			FilePath:     filepath.Join(t.TempDir(), buildspec.DefaultFileName),
			Dependencies: buildspec.DependencySpec{Manifest: "requirements.txt"},
		}
		if _, err := Resolve(p); err == nil {
			t.Error("Resolve() should fail for a missing requirements file")
		}
	})

	t.Run("nothing declared", func(t *testing.T) {
		t.Parallel()

		if _, err := Resolve(&buildspec.Project{}); !errors.Is(err, ErrNoDependencies) {
			t.Errorf("Resolve() error = %v", err)
		}
	})
}

func TestInstallFailureKeepsPipOutput(t *testing.T) {
	t.Parallel()

	const pipErr = "ERROR: No matching distribution found for pillow==10.4.0"
	runner := runtimetest.New().HandleContains("pip install", runtimetest.ExitWithStderr(1, "Collecting pillow==10.4.0\n"+pipErr+"\n"))
	i := &Installer{Runner: runner, Python: "python", Spec: buildspec.InstallSpec{Strategy: buildspec.StrategyBinaryOnly, Fallback: true}}

	report, err := i.Install(context.Background(), pinned)
	if err == nil {
		t.Fatal("Install() should fail")
	}
	for _, call := range runner.Calls() {
		if !call.Capture {
			t.Errorf("pip ran without capturing output: %s", runtimetest.CommandLine(call))
		}
	}
	if got := report.Attempts[len(report.Attempts)-1].Output; !strings.Contains(got, pipErr) {
		t.Errorf("last attempt output = %q, want pip error", got)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %v", err)
	}
	if !strings.Contains(ae.Format(false), pipErr) {
		t.Errorf("Format() should show pip's error:\n%s", ae.Format(false))
	}
}
