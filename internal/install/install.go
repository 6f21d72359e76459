// SPDX-License-Identifier: MPL-2.0

package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pyship/pyship/internal/issue"
	"github.com/pyship/pyship/internal/runtime"
	"github.com/pyship/pyship/pkg/buildspec"
	"github.com/pyship/pyship/pkg/manifest"
)

var (
	// ErrDependencyInstall is returned when every install attempt failed.
	ErrDependencyInstall = errors.New("dependency installation failed")
	// ErrToolingUpgrade is returned when upgrading pip failed.
	ErrToolingUpgrade = errors.New("installer tooling upgrade failed")
	// ErrNoDependencies is returned when a project declares nothing to install.
	ErrNoDependencies = errors.New("no dependencies declared")
)

// OutputTailLines is how much of pip's output a failure keeps.
const OutputTailLines = 15

// UpgradeArgs are the pip arguments for upgrading the installer tooling.
var UpgradeArgs = []string{"-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel"}

type (
	// Dependencies is the resolved install set.
	Dependencies struct {
		// Requirements are passed to pip as positional arguments.
		Requirements []string
		// RequirementFiles are passed with -r.
		RequirementFiles []string
	}

	// Attempt records one pip run.
	Attempt struct {
		Strategy buildspec.InstallStrategy
		Args     []string
		ExitCode runtime.ExitCode
		Err      error
		// Output is the tail of pip's captured output.
		Output string
	}

	// Report summarizes an Install call.
	Report struct {
		Attempts     []Attempt
		UsedFallback bool
	}

	// Installer runs pip with a specific interpreter.
	Installer struct {
		Runner runtime.Runner
		// Python is the interpreter pip runs under.
		Python string
		Dir    string
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
		Spec   buildspec.InstallSpec
	}
)

// Empty reports whether there is nothing to install.
func (d Dependencies) Empty() bool {
	return len(d.Requirements) == 0 && len(d.RequirementFiles) == 0
}

// Resolve collects the project's inline packages and manifest. Requirements
// files are checked for readability and passed with -r; pyproject.toml
// dependencies are expanded inline because pip cannot read them without
// installing the project itself.
func Resolve(p *buildspec.Project) (Dependencies, error) {
	var deps Dependencies
	for _, pkg := range p.Dependencies.Packages {
		deps.Requirements = append(deps.Requirements, pkg.Requirement())
	}

	if p.Dependencies.Manifest != "" {
		path := p.Resolve(p.Dependencies.Manifest)
		kind, err := manifest.KindOf(path)
		if err != nil {
			return Dependencies{}, err
		}
		reqs, err := manifest.Parse(path)
		if err != nil {
			return Dependencies{}, fmt.Errorf("failed to read dependency manifest: %w", err)
		}
		switch kind {
		case manifest.KindRequirements:
			deps.RequirementFiles = append(deps.RequirementFiles, path)
		case manifest.KindPyproject:
			for _, r := range reqs {
				deps.Requirements = append(deps.Requirements, r.String())
			}
		}
		slog.Debug("dependency manifest read", "path", path, "requirements", len(reqs))
	}

	if deps.Empty() {
		return Dependencies{}, ErrNoDependencies
	}
	return deps, nil
}

// StrategyArgs returns the pip flags for strategy.
func StrategyArgs(strategy buildspec.InstallStrategy) []string {
	switch strategy {
	case buildspec.StrategyBinaryOnly:
		return []string{"--only-binary=:all:"}
	case buildspec.StrategyPreferBinary:
		return []string{"--prefer-binary"}
	default:
		return nil
	}
}

// Relaxed returns the strategy used for the single fallback attempt: one
// step less restrictive than strategy.
func Relaxed(strategy buildspec.InstallStrategy) buildspec.InstallStrategy {
	if strategy == buildspec.StrategyBinaryOnly {
		return buildspec.StrategyPreferBinary
	}
	return buildspec.StrategyAny
}

// Args builds the full pip command line for deps under strategy.
func (i *Installer) Args(deps Dependencies, strategy buildspec.InstallStrategy) []string {
	args := []string{"-m", "pip", "install"}
	args = append(args, StrategyArgs(strategy)...)
	if i.Spec.IndexURL != "" {
		args = append(args, "--index-url", i.Spec.IndexURL)
	}
	for _, u := range i.Spec.ExtraIndexURLs {
		args = append(args, "--extra-index-url", u)
	}
	args = append(args, deps.Requirements...)
	for _, f := range deps.RequirementFiles {
		args = append(args, "-r", f)
	}
	return args
}

// UpgradeTooling upgrades pip, setuptools and wheel.
func (i *Installer) UpgradeTooling(ctx context.Context) error {
	res := i.run(ctx, UpgradeArgs)
	if res.Success() {
		return nil
	}
	if res.Error != nil {
		return fmt.Errorf("%w: %w", ErrToolingUpgrade, res.Error)
	}
	return fmt.Errorf("%w: pip exited with code %s", ErrToolingUpgrade, res.ExitCode)
}

// Install installs deps with the configured strategy. When that fails and
// fallback is enabled for a restricted strategy, exactly one more attempt
// runs with the relaxed strategy.
func (i *Installer) Install(ctx context.Context, deps Dependencies) (*Report, error) {
	if deps.Empty() {
		return nil, ErrNoDependencies
	}

	report := &Report{}
	attempt := func(strategy buildspec.InstallStrategy) bool {
		args := i.Args(deps, strategy)
		res := i.run(ctx, args)
		report.Attempts = append(report.Attempts, Attempt{
			Strategy: strategy, Args: args, ExitCode: res.ExitCode, Err: res.Error,
			Output: res.OutputTail(OutputTailLines),
		})
		return res.Success()
	}

	if attempt(i.Spec.Strategy) {
		return report, nil
	}

	if i.Spec.Fallback && i.Spec.Strategy.Restricted() && ctx.Err() == nil {
		relaxed := Relaxed(i.Spec.Strategy)
		slog.Warn("preferred install failed, retrying once", "strategy", i.Spec.Strategy, "fallback", relaxed)
		report.UsedFallback = true
		if attempt(relaxed) {
			return report, nil
		}
	}

	last := report.Attempts[len(report.Attempts)-1]
	cause := fmt.Errorf("%w: pip exited with code %s after %d attempt(s)", ErrDependencyInstall, last.ExitCode, len(report.Attempts))
	if last.Err != nil {
		cause = fmt.Errorf("%w: %w", ErrDependencyInstall, last.Err)
	}

	ec := issue.NewErrorContext().
		WithOperation("install dependencies").
		WithResource(i.Python).
		WithSuggestion("Check your network connection and proxy settings")
	if !report.UsedFallback && i.Spec.Strategy.Restricted() {
		ec = ec.WithSuggestion("Set install.fallback to true to retry without the binary restriction")
	}
	return report, ec.
		WithSuggestion("Relax the version pins in dependencies.packages").
		WithOutput(last.Output).
		Wrap(cause).
		BuildError()
}

func (i *Installer) run(ctx context.Context, args []string) *runtime.Result {
	return i.Runner.Run(ctx, runtime.Invocation{
		Program: i.Python,
		Args:    args,
		Dir:     i.Dir,
		Env:     i.Env,
		Stdout:  i.Stdout,
		Stderr:  i.Stderr,
		Capture: true,
	})
}
