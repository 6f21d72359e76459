// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pyship/pyship/internal/issue"
	"github.com/pyship/pyship/internal/runtime"
	"github.com/pyship/pyship/pkg/buildspec"

	"golang.org/x/mod/semver"
)

// ErrInterpreterNotFound is returned when no candidate is usable.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

type (
	// Interpreter is a resolved Python interpreter.
	Interpreter struct {
		// Name is the candidate that matched, for example "py".
		Name string
		// Path is the resolved executable.
		Path string
		// Version is "major.minor[.patch]", or empty if --version printed
		// nothing recognizable.
		Version string
	}

	// Rejection records why a candidate was skipped.
	Rejection struct {
		Candidate string
		Reason    string
	}

	// NotFoundError lists every rejected candidate. It wraps ErrInterpreterNotFound.
	NotFoundError struct {
		Rejections []Rejection
		MinVersion string
	}

	// Probe runs the interpreter search.
	Probe struct {
		Runner runtime.Runner
		// LookPath resolves a candidate on the search path. The default
		// searches the PATH in Env.
		LookPath func(file string) (string, error)
		// Env is passed to the --version run; nil inherits the parent's.
		Env []string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrInterpreterNotFound.Error())
	if e.MinVersion != "" {
		fmt.Fprintf(&sb, " (need %s or newer)", e.MinVersion)
	}
	for _, r := range e.Rejections {
		fmt.Fprintf(&sb, "\n  %s: %s", r.Candidate, r.Reason)
	}
	return sb.String()
}

// Unwrap returns ErrInterpreterNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrInterpreterNotFound }

// New creates a Probe that resolves candidates on the PATH of its Env.
func New(runner runtime.Runner) *Probe {
	return &Probe{Runner: runner}
}

// Find returns the first usable interpreter. The returned error wraps
// ErrInterpreterNotFound inside an issue.ActionableError.
func (p *Probe) Find(ctx context.Context, spec buildspec.InterpreterSpec) (*Interpreter, error) {
	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = func(file string) (string, error) {
			return runtime.LookPath(file, p.Env)
		}
	}

	notFound := &NotFoundError{MinVersion: spec.MinVersion}
	for _, candidate := range spec.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, err := lookPath(candidate)
		if err != nil {
			slog.Debug("interpreter candidate not on PATH", "candidate", candidate, "error", err)
			notFound.Rejections = append(notFound.Rejections, Rejection{candidate, "not found on PATH"})
			continue
		}

		res := p.Runner.Run(ctx, runtime.Invocation{
			Program: path,
			Args:    []string{"--version"},
			Env:     p.Env,
			Stdout:  io.Discard,
			Stderr:  io.Discard,
			Capture: true,
		})
		if res.Error != nil {
			notFound.Rejections = append(notFound.Rejections, Rejection{candidate, res.Error.Error()})
			continue
		}
		if !res.ExitCode.IsSuccess() {
			notFound.Rejections = append(notFound.Rejections, Rejection{candidate, "--version exited with code " + res.ExitCode.String()})
			continue
		}

		// Python 2 prints its version on stderr.
		version := ParseVersion(res.Output + "\n" + res.ErrOutput)
		if ok, reason := Satisfies(version, spec.MinVersion); !ok {
			notFound.Rejections = append(notFound.Rejections, Rejection{candidate, reason})
			continue
		}

		slog.Debug("interpreter found", "candidate", candidate, "path", path, "version", version)
		return &Interpreter{Name: candidate, Path: path, Version: version}, nil
	}

	if len(spec.Candidates) == 0 {
		notFound.Rejections = append(notFound.Rejections, Rejection{"(none)", "interpreter.candidates is empty"})
	}

	return nil, issue.NewErrorContext().
		WithOperation("find Python interpreter").
		WithResource(strings.Join(spec.Candidates, ", ")).
		WithSuggestion("Install Python 3 from https://www.python.org/downloads/ and tick \"Add python.exe to PATH\"").
		WithSuggestion("Open a new terminal so the updated PATH is picked up").
		WithSuggestion("Set interpreter.candidates in pyship.cue to the interpreter's full path").
		Wrap(notFound).
		BuildError()
}

// ParseVersion extracts "major.minor[.patch]" from --version output such as
// "Python 3.12.1". It returns "" when no version is present.
func ParseVersion(output string) string {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	if m[3] == "" {
		return m[1] + "." + m[2]
	}
	return m[1] + "." + m[2] + "." + m[3]
}

// Satisfies reports whether version is at least minVersion. An empty
// minVersion accepts anything, including an unknown version.
func Satisfies(version, minVersion string) (bool, string) {
	if minVersion == "" {
		return true, ""
	}
	if version == "" {
		return false, "version unknown, need " + minVersion
	}
	have, want := "v"+version, "v"+minVersion
	if !semver.IsValid(have) || !semver.IsValid(want) {
		return false, fmt.Sprintf("cannot compare version %s with %s", version, minVersion)
	}
	if semver.Compare(have, want) < 0 {
		return false, fmt.Sprintf("version %s is older than %s", version, minVersion)
	}
	return true, ""
}
