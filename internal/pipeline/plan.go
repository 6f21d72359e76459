// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pyship/pyship/internal/install"
	"github.com/pyship/pyship/internal/packager"
	"github.com/pyship/pyship/internal/runtime"
	"github.com/pyship/pyship/internal/venv"
	"github.com/pyship/pyship/pkg/buildspec"
)

// interpreterPlaceholder stands for the interpreter the probe will find.
const interpreterPlaceholder = "<python>"

// PlannedStep is one step of a dry run.
type PlannedStep struct {
	Name StepName
	// Commands are the command lines the step would run, in order.
	Commands []string
	// Note explains conditional behavior or why the step is omitted.
	Note string
}

// Plan describes what Run would do without running anything. Interpreter
// paths that depend on the probe are shown as <python>.
func (p *Pipeline) Plan() []PlannedStep {
	pr := p.project
	python := interpreterPlaceholder

	plan := []PlannedStep{{
		Name: StepProbe,
		Note: "first usable of: " + strings.Join(pr.Interpreter.Candidates, ", "),
	}}
	if pr.Interpreter.MinVersion != "" {
		plan[0].Note += "; at least " + pr.Interpreter.MinVersion
	}
	for _, cand := range pr.Interpreter.Candidates {
		plan[0].Commands = append(plan[0].Commands, cand+" --version")
	}

	envStep := PlannedStep{Name: StepEnvironment}
	if pr.UsesVenv() {
		m := &venv.Manager{GOOS: p.opts.GOOS}
		env, exists := m.Open(pr.Resolve(pr.Environment.Dir))
		if exists {
			envStep.Note = "reuse " + env.Dir
		} else {
			envStep.Commands = []string{commandLine(python, "-m", "venv", env.Dir)}
		}
		python = env.Interpreter()
	} else {
		envStep.Note = "omitted: environment.mode is none"
	}
	plan = append(plan, envStep, hookPlan(StepPreBuild, pr.Hooks.PreBuild))

	inst := &install.Installer{Python: python, Spec: pr.Install}
	upgrade := PlannedStep{Name: StepUpgrade}
	if pr.Install.UpgradeTools {
		upgrade.Commands = []string{commandLine(python, install.UpgradeArgs...)}
	} else {
		upgrade.Note = "omitted: install.upgrade_tools is false"
	}
	plan = append(plan, upgrade)

	installStep := PlannedStep{Name: StepInstall}
	deps, err := install.Resolve(pr)
	switch {
	case errors.Is(err, install.ErrNoDependencies):
		installStep.Note = "omitted: no dependencies declared"
	case err != nil:
		installStep.Note = "cannot resolve dependencies: " + err.Error()
	default:
		installStep.Commands = []string{commandLine(python, inst.Args(deps, pr.Install.Strategy)...)}
		if pr.Install.Fallback && pr.Install.Strategy.Restricted() {
			relaxed := install.Relaxed(pr.Install.Strategy)
			installStep.Commands = append(installStep.Commands, commandLine(python, inst.Args(deps, relaxed)...))
			installStep.Note = fmt.Sprintf("the second command runs once, only if the first fails (%s)", relaxed)
		}
	}
	plan = append(plan, installStep)

	plan = append(plan, PlannedStep{
		Name:     StepPackage,
		Commands: []string{commandLine(python, packager.Args(pr)...)},
		Note:     fmt.Sprintf("success when %s", successNote(p)),
	})

	return append(plan, hookPlan(StepPostBuild, pr.Hooks.PostBuild))
}

func successNote(p *Pipeline) string {
	if p.project.Packager.Success == buildspec.SuccessExitCode {
		return p.project.Packager.Module + " exits 0"
	}
	return packager.ArtifactPath(p.project, p.opts.GOOS) + " exists"
}

func hookPlan(name StepName, src string) PlannedStep {
	if src == "" {
		return PlannedStep{Name: name, Note: "omitted: no hook"}
	}
	return PlannedStep{Name: name, Commands: []string{src}, Note: "runs in the built-in shell"}
}

// commandLine shell-quotes the command, leaving the placeholder readable.
func commandLine(program string, args ...string) string {
	if program != interpreterPlaceholder || len(args) == 0 {
		return runtime.Invocation{Program: program, Args: args}.String()
	}
	return program + " " + runtime.Invocation{Program: args[0], Args: args[1:]}.String()
}
