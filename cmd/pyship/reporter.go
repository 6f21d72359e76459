// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/pyship/pyship/internal/pipeline"
)

// stepReporter prints one line when a step starts and one when it ends.
type stepReporter struct {
	w       io.Writer
	verbose bool
}

func (r *stepReporter) StepStarted(name pipeline.StepName) {
	fmt.Fprintf(r.w, "%s %s\n", SubtitleStyle.Render(stepCounter(name)), TitleStyle.Render(string(name)))
}

func (r *stepReporter) StepFinished(res pipeline.StepResult) {
	var line string
	switch res.Status {
	case pipeline.StatusSkipped:
		// Skipped steps were never announced.
		line = fmt.Sprintf("  %s %s %s", statusMark(res.Status), res.Name, res.Status)
	default:
		line = fmt.Sprintf("  %s %s", statusMark(res.Status), res.Status)
	}
	if res.Detail != "" {
		line += ": " + res.Detail
	}
	if res.Status != pipeline.StatusSkipped && res.Status != pipeline.StatusOmitted {
		line += SubtitleStyle.Render(fmt.Sprintf(" (%s)", res.Duration.Round(time.Millisecond)))
	}
	fmt.Fprintln(r.w, line)

	if res.Err != nil && (res.Status == pipeline.StatusWarned || r.verbose) {
		for l := range strings.SplitSeq(strings.TrimRight(res.Err.Error(), "\n"), "\n") {
			fmt.Fprintln(r.w, "    "+SubtitleStyle.Render(l))
		}
	}
}

// stepCounter renders "[n/total]" for a step.
func stepCounter(name pipeline.StepName) string {
	steps := pipeline.Steps()
	return fmt.Sprintf("[%d/%d]", slices.Index(steps, name)+1, len(steps))
}

func statusMark(s pipeline.Status) string {
	switch s {
	case pipeline.StatusSucceeded:
		return SuccessStyle.Render("✓")
	case pipeline.StatusWarned:
		return WarningStyle.Render("!")
	case pipeline.StatusFailed:
		return ErrorStyle.Render("✗")
	default:
		return SubtitleStyle.Render("-")
	}
}
