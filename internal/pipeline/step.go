// SPDX-License-Identifier: MPL-2.0

package pipeline

import "time"

// Step names, in execution order.
const (
	StepProbe       StepName = "probe"
	StepEnvironment StepName = "environment"
	StepPreBuild    StepName = "pre-build hook"
	StepUpgrade     StepName = "upgrade tooling"
	StepInstall     StepName = "install"
	StepPackage     StepName = "package"
	StepPostBuild   StepName = "post-build hook"
)

// Step statuses.
const (
	StatusSucceeded Status = "succeeded"
	// StatusWarned marks a step that failed without stopping the build.
	StatusWarned Status = "warned"
	StatusFailed Status = "failed"
	// StatusSkipped marks a step that did not run because an earlier one failed.
	StatusSkipped Status = "skipped"
	// StatusOmitted marks a step the project does not use.
	StatusOmitted Status = "omitted"
)

type (
	// StepName identifies a pipeline step.
	StepName string

	// Status is the outcome of one step.
	Status string

	// StepResult is reported when a step finishes.
	StepResult struct {
		Name     StepName
		Status   Status
		Detail   string
		Err      error
		Duration time.Duration
	}

	// Reporter observes a run as it progresses.
	Reporter interface {
		StepStarted(name StepName)
		StepFinished(result StepResult)
	}

	nopReporter struct{}
)

// Steps returns every step name in execution order.
func Steps() []StepName {
	return []StepName{StepProbe, StepEnvironment, StepPreBuild, StepUpgrade, StepInstall, StepPackage, StepPostBuild}
}

// NopReporter discards progress events.
func NopReporter() Reporter { return nopReporter{} }

func (nopReporter) StepStarted(StepName)     {}
func (nopReporter) StepFinished(StepResult) {}

// Ok reports whether the step did not stop the build.
func (s Status) Ok() bool {
	return s == StatusSucceeded || s == StatusWarned || s == StatusOmitted
}
