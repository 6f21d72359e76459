// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/pyship/pyship/internal/issue"
	"github.com/pyship/pyship/internal/runtime"
	"github.com/pyship/pyship/pkg/buildspec"
	"github.com/pyship/pyship/pkg/platform"
)

const outputTailLines = 20

// ErrPackaging is returned when the packaging step is judged a failure.
var ErrPackaging = errors.New("packaging failed")

type (
	// Outcome describes a packaging run.
	Outcome struct {
		// Artifact is the expected executable path.
		Artifact string
		// ArtifactExists is checked after the run in both success modes.
		ArtifactExists bool
		ExitCode       runtime.ExitCode
		Check          buildspec.SuccessCheck
		// Output is the tail of the tool's captured output.
		Output string
	}

	// Packager runs the packaging tool for one project.
	Packager struct {
		Runner  runtime.Runner
		Project *buildspec.Project
		// Python is the interpreter that has the packaging tool installed.
		Python string
		// GOOS decides the executable suffix; defaults to runtime.GOOS.
		GOOS   string
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}
)

// Succeeded applies the project's success check.
func (o *Outcome) Succeeded() bool {
	if o.Check == buildspec.SuccessExitCode {
		return o.ExitCode.IsSuccess()
	}
	return o.ArtifactExists
}

func (p *Packager) goos() string {
	if p.GOOS == "" {
		return goruntime.GOOS
	}
	return p.GOOS
}

// Args returns the packaging tool's arguments for project. Paths are
// relative to the project directory, which is where the tool runs.
func Args(project *buildspec.Project) []string {
	args := []string{"-m", project.Packager.Module, "--noconfirm"}
	if project.OneFile {
		args = append(args, "--onefile")
	} else {
		args = append(args, "--onedir")
	}
	if project.Windowed {
		args = append(args, "--windowed")
	} else {
		args = append(args, "--console")
	}
	args = append(args,
		"--name", project.Name,
		"--distpath", project.OutputDir,
		"--workpath", project.WorkDir,
		"--specpath", ".",
	)
	if project.Icon != "" {
		args = append(args, "--icon", project.Icon)
	}
	if project.Packager.Clean {
		args = append(args, "--clean")
	}
	args = append(args, project.Packager.Args...)
	return append(args, project.Entry)
}

// ArtifactPath is where the executable ends up: <output_dir>/<name>[.exe]
// for one-file builds, <output_dir>/<name>/<name>[.exe] otherwise.
func ArtifactPath(project *buildspec.Project, goos string) string {
	exe := platform.ExecutableName(project.Name, goos)
	if project.OneFile {
		return project.Resolve(filepath.Join(project.OutputDir, exe))
	}
	return project.Resolve(filepath.Join(project.OutputDir, project.Name, exe))
}

// Invocation is the command Build runs.
func (p *Packager) Invocation() runtime.Invocation {
	return runtime.Invocation{
		Program: p.Python,
		Args:    Args(p.Project),
		Dir:     p.Project.BaseDir(),
		Env:     p.Env,
		Stdout:  p.Stdout,
		Stderr:  p.Stderr,
		Capture: true,
	}
}

// Build removes any stale artifact, runs the packaging tool and judges the
// result. The Outcome is returned even when the error is non-nil.
func (p *Packager) Build(ctx context.Context) (*Outcome, error) {
	out := &Outcome{
		Artifact: ArtifactPath(p.Project, p.goos()),
		Check:    p.Project.Packager.Success,
	}

	// A leftover executable from an earlier build would make the artifact
	// check pass even when this run failed.
	if err := os.Remove(out.Artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		return out, p.failure(out, fmt.Errorf("%w: cannot remove stale %s: %w", ErrPackaging, out.Artifact, err))
	}

	res := p.Runner.Run(ctx, p.Invocation())
	out.ExitCode = res.ExitCode
	out.Output = res.OutputTail(outputTailLines)
	out.ArtifactExists = isFile(out.Artifact)
	slog.Debug("packaging finished", "exit_code", res.ExitCode, "artifact", out.Artifact, "exists", out.ArtifactExists)

	if res.Error != nil {
		return out, p.failure(out, fmt.Errorf("%w: %w", ErrPackaging, res.Error))
	}
	if !out.Succeeded() {
		if out.Check == buildspec.SuccessExitCode {
			return out, p.failure(out, fmt.Errorf("%w: %s exited with code %s", ErrPackaging, p.Project.Packager.Module, res.ExitCode))
		}
		return out, p.failure(out, fmt.Errorf("%w: %s was not produced", ErrPackaging, out.Artifact))
	}
	if out.Check == buildspec.SuccessExitCode && !out.ArtifactExists {
		slog.Warn("packaging tool reported success but the executable is missing", "artifact", out.Artifact)
	}
	return out, nil
}

func (p *Packager) failure(out *Outcome, cause error) error {
	return issue.NewErrorContext().
		WithOperation("package executable").
		WithResource(out.Artifact).
		WithSuggestion("Look for the first error in the " + p.Project.Packager.Module + " output, or rerun with --verbose for all of it").
		WithSuggestion("Run 'pyship clean' and build again").
		WithOutput(out.Output).
		Wrap(cause).
		BuildError()
}

// CleanTargets lists what Clean removes: the work directory, the generated
// .spec file and the artifact.
func CleanTargets(project *buildspec.Project, goos string) []string {
	targets := []string{
		project.Resolve(project.WorkDir),
		project.Resolve(project.Name + ".spec"),
		ArtifactPath(project, goos),
	}
	if !project.OneFile {
		targets[2] = project.Resolve(filepath.Join(project.OutputDir, project.Name))
	}
	return targets
}

// Clean removes packaging leftovers and returns the paths that existed.
func Clean(project *buildspec.Project, goos string) ([]string, error) {
	var removed []string
	var errs []error
	for _, target := range CleanTargets(project, goos) {
		if _, err := os.Lstat(target); err != nil {
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, target)
	}
	return removed, errors.Join(errs...)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
