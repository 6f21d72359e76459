// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"github.com/pyship/pyship/internal/install"
	"github.com/pyship/pyship/internal/packager"
	"github.com/pyship/pyship/internal/probe"
	"github.com/pyship/pyship/internal/runtime"
	"github.com/pyship/pyship/internal/venv"
	"github.com/pyship/pyship/pkg/buildspec"
	"github.com/pyship/pyship/pkg/platform"

	"github.com/google/uuid"
)

type (
	// HookRunner runs pre- and post-build snippets.
	HookRunner interface {
		Run(ctx context.Context, script runtime.Script) *runtime.Result
	}

	// Options configures a Pipeline. Zero values select the host defaults.
	Options struct {
		Runner   runtime.Runner
		Hooks    HookRunner
		Reporter Reporter
		// LookPath resolves interpreter candidates. The default searches the
		// PATH of the build environment, including env and env_files.
		LookPath func(file string) (string, error)
		// GOOS selects venv layout and executable suffix.
		GOOS string
		// Env is the base environment; nil means os.Environ().
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// Report summarizes a run.
	Report struct {
		// ID identifies the run in logs.
		ID          string
		Project     string
		Steps       []StepResult
		Interpreter *probe.Interpreter
		Environment *venv.Environment
		Install     *install.Report
		Package     *packager.Outcome
		// Artifact is the expected executable path.
		Artifact  string
		Succeeded bool
		Duration  time.Duration
	}

	// Pipeline builds one project.
	Pipeline struct {
		project *buildspec.Project
		opts    Options
	}

	// run carries state between steps.
	run struct {
		report *Report
		env    []string
		python string
	}
)

// New creates a Pipeline, filling unset options with host defaults.
func New(project *buildspec.Project, opts Options) *Pipeline {
	if opts.Runner == nil {
		opts.Runner = runtime.NewNativeRunner()
	}
	if opts.Hooks == nil {
		opts.Hooks = runtime.NewVirtualShell()
	}
	if opts.Reporter == nil {
		opts.Reporter = NopReporter()
	}
	if opts.GOOS == "" {
		opts.GOOS = goruntime.GOOS
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &Pipeline{project: project, opts: opts}
}

// Project returns the project being built.
func (p *Pipeline) Project() *buildspec.Project { return p.project }

// Run executes every step in order. The report is complete even when the
// returned error is non-nil.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	r := &run{report: &Report{
		ID:       uuid.NewString(),
		Project:  p.project.Name,
		Artifact: packager.ArtifactPath(p.project, p.opts.GOOS),
	}}
	log := slog.With("run", r.report.ID)
	log.Debug("build started", "project", p.project.Name, "file", p.project.FilePath)

	steps := []struct {
		name StepName
		fn   func(context.Context, *run) (Status, string, error)
	}{
		{StepProbe, p.probe},
		{StepEnvironment, p.environment},
		{StepPreBuild, p.preBuild},
		{StepUpgrade, p.upgrade},
		{StepInstall, p.install},
		{StepPackage, p.pack},
		{StepPostBuild, p.postBuild},
	}

	var failure error
	for _, step := range steps {
		if failure != nil {
			res := StepResult{Name: step.name, Status: StatusSkipped}
			r.report.Steps = append(r.report.Steps, res)
			p.opts.Reporter.StepFinished(res)
			continue
		}
		if err := ctx.Err(); err != nil {
			failure = err
			res := StepResult{Name: step.name, Status: StatusSkipped}
			r.report.Steps = append(r.report.Steps, res)
			p.opts.Reporter.StepFinished(res)
			continue
		}

		p.opts.Reporter.StepStarted(step.name)
		stepStart := time.Now()
		status, detail, err := step.fn(ctx, r)
		res := StepResult{Name: step.name, Status: status, Detail: detail, Err: err, Duration: time.Since(stepStart)}
		r.report.Steps = append(r.report.Steps, res)
		p.opts.Reporter.StepFinished(res)

		log.Debug("step finished", "step", step.name, "status", status, "duration", res.Duration)
		if !status.Ok() {
			failure = err
		}
	}

	r.report.Duration = time.Since(start)
	r.report.Succeeded = failure == nil
	if failure != nil {
		log.Debug("build failed", "error", failure)
		return r.report, failure
	}
	log.Debug("build succeeded", "artifact", r.report.Artifact, "duration", r.report.Duration)
	return r.report, nil
}

// BaseEnv returns the environment every subprocess starts from: the
// options' environment, then env_files in order, then the project's env.
func (p *Pipeline) BaseEnv() ([]string, error) {
	vars := make(map[string]string)
	for _, file := range p.project.EnvFiles {
		if err := runtime.LoadEnvFile(vars, file, p.project.BaseDir()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	for k, v := range p.project.Env {
		vars[k] = v
	}
	return runtime.MergeEnv(p.opts.Env, vars, nil, p.opts.GOOS == platform.Windows), nil
}

func (p *Pipeline) probe(ctx context.Context, r *run) (Status, string, error) {
	env, err := p.BaseEnv()
	if err != nil {
		return StatusFailed, "", err
	}
	r.env = env

	pr := probe.New(p.opts.Runner)
	if p.opts.LookPath != nil {
		pr.LookPath = p.opts.LookPath
	}
	pr.Env = env

	interp, err := pr.Find(ctx, p.project.Interpreter)
	if err != nil {
		return StatusFailed, "", err
	}
	r.report.Interpreter = interp
	r.python = interp.Path
	return StatusSucceeded, fmt.Sprintf("%s %s (%s)", interp.Name, interp.Version, interp.Path), nil
}

func (p *Pipeline) environment(ctx context.Context, r *run) (Status, string, error) {
	if !p.project.UsesVenv() {
		return StatusOmitted, "installing into " + r.python, nil
	}

	m := &venv.Manager{Runner: p.opts.Runner, GOOS: p.opts.GOOS, Env: r.env, Stdout: p.opts.Stdout, Stderr: p.opts.Stderr}
	env, err := m.Ensure(ctx, r.report.Interpreter, p.project.Resolve(p.project.Environment.Dir))
	if err != nil {
		return StatusFailed, "", err
	}
	r.report.Environment = env
	r.env = env.Activate(r.env)
	r.python = env.Interpreter()

	if env.Created {
		return StatusSucceeded, "created " + env.Dir, nil
	}
	return StatusSucceeded, "reused " + env.Dir, nil
}

func (p *Pipeline) hook(ctx context.Context, r *run, name, src string) (Status, string, error) {
	if src == "" {
		return StatusOmitted, "", nil
	}
	res := p.opts.Hooks.Run(ctx, runtime.Script{
		Name:   name,
		Source: src,
		Dir:    p.project.BaseDir(),
		Env:    r.env,
		Stdout: p.opts.Stdout,
		Stderr: p.opts.Stderr,
	})
	if res.Error != nil {
		return StatusFailed, "", fmt.Errorf("%w: %s: %w", ErrHook, name, res.Error)
	}
	if !res.ExitCode.IsSuccess() {
		return StatusFailed, "", fmt.Errorf("%w: %s exited with code %s", ErrHook, name, res.ExitCode)
	}
	return StatusSucceeded, "", nil
}

func (p *Pipeline) preBuild(ctx context.Context, r *run) (Status, string, error) {
	return p.hook(ctx, r, "pre_build", p.project.Hooks.PreBuild)
}

func (p *Pipeline) postBuild(ctx context.Context, r *run) (Status, string, error) {
	return p.hook(ctx, r, "post_build", p.project.Hooks.PostBuild)
}

func (p *Pipeline) installer(r *run) *install.Installer {
	return &install.Installer{
		Runner: p.opts.Runner,
		Python: r.python,
		Dir:    p.project.BaseDir(),
		Env:    r.env,
		Stdout: p.opts.Stdout,
		Stderr: p.opts.Stderr,
		Spec:   p.project.Install,
	}
}

// upgrade failures are reported but do not stop the build: an older pip
// can usually still install the dependencies.
func (p *Pipeline) upgrade(ctx context.Context, r *run) (Status, string, error) {
	if !p.project.Install.UpgradeTools {
		return StatusOmitted, "", nil
	}
	if err := p.installer(r).UpgradeTooling(ctx); err != nil {
		slog.Warn("continuing with the installed pip", "error", err)
		return StatusWarned, err.Error(), err
	}
	return StatusSucceeded, "pip, setuptools, wheel", nil
}

func (p *Pipeline) install(ctx context.Context, r *run) (Status, string, error) {
	deps, err := install.Resolve(p.project)
	if errors.Is(err, install.ErrNoDependencies) {
		return StatusOmitted, "no dependencies declared", nil
	}
	if err != nil {
		return StatusFailed, "", fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	report, err := p.installer(r).Install(ctx, deps)
	r.report.Install = report
	if err != nil {
		return StatusFailed, "", err
	}
	last := report.Attempts[len(report.Attempts)-1]
	if report.UsedFallback {
		return StatusSucceeded, fmt.Sprintf("installed with fallback strategy %s", last.Strategy), nil
	}
	return StatusSucceeded, fmt.Sprintf("installed with strategy %s", last.Strategy), nil
}

func (p *Pipeline) pack(ctx context.Context, r *run) (Status, string, error) {
	pk := &packager.Packager{
		Runner:  p.opts.Runner,
		Project: p.project,
		Python:  r.python,
		GOOS:    p.opts.GOOS,
		Env:     r.env,
		Stdout:  p.opts.Stdout,
		Stderr:  p.opts.Stderr,
	}
	out, err := pk.Build(ctx)
	r.report.Package = out
	if err != nil {
		return StatusFailed, "", err
	}
	return StatusSucceeded, out.Artifact, nil
}
