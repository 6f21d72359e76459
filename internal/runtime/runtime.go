// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

type (
	// Invocation describes one external program run.
	Invocation struct {
		// Program is the executable name or path.
		Program string
		// Args are passed to Program verbatim.
		Args []string
		// Dir is the working directory; empty means the current directory.
		Dir string
		// Env is the complete environment; nil inherits the parent's.
		Env []string
		// Stdin, Stdout and Stderr default to nothing when nil.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Capture stores stdout and stderr in the Result in addition to
		// writing them to Stdout and Stderr.
		Capture bool
	}

	// Result contains the outcome of an Invocation.
	Result struct {
		// ExitCode is the process exit code.
		ExitCode ExitCode
		// Error is set when the program could not be run at all
		// (missing executable, cancelled context). A program that ran and
		// exited non-zero has a nil Error.
		Error error
		// Output and ErrOutput hold captured output when Capture was set.
		Output    string
		ErrOutput string
	}

	// Runner executes invocations.
	Runner interface {
		Run(ctx context.Context, inv Invocation) *Result
	}

	// NativeRunner runs programs on the host with os/exec.
	NativeRunner struct{}
)

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewExitCodeResult creates a Result for a normal non-zero exit.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// NewSuccessResult creates a Result with exit code 0.
func NewSuccessResult() *Result {
	return &Result{}
}

// Success returns true if the program exited 0 without an error.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}

// OutputTail returns the last n non-blank lines of the captured output.
// Stderr is preferred since pip and PyInstaller report errors there.
func (r *Result) OutputTail(n int) string {
	out := r.ErrOutput
	if strings.TrimSpace(out) == "" {
		out = r.Output
	}
	var lines []string
	for line := range strings.Lines(out) {
		if line = strings.TrimRight(line, "\r\n"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// String renders the invocation as a shell-quoted command line.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	for _, word := range append([]string{inv.Program}, inv.Args...) {
		quoted, err := syntax.Quote(word, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", word)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}

// NewNativeRunner creates a NativeRunner.
func NewNativeRunner() *NativeRunner {
	return &NativeRunner{}
}

// Run executes inv and waits for it to terminate.
func (r *NativeRunner) Run(ctx context.Context, inv Invocation) *Result {
	if inv.Program == "" {
		return NewErrorResult(1, errors.New("no program to run"))
	}

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env
	cmd.Stdin = inv.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	if inv.Capture {
		cmd.Stdout = teeWriter(inv.Stdout, &stdout)
		cmd.Stderr = teeWriter(inv.Stderr, &stderr)
	}

	err := cmd.Run()
	result := &Result{Output: stdout.String(), ErrOutput: stderr.String()}
	if err == nil {
		return result
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = 1
		result.Error = fmt.Errorf("%s interrupted: %w", inv.Program, ctxErr)
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := ExitCode(exitErr.ExitCode())
		if valid, _ := code.IsValid(); !valid {
			code = 1
		}
		result.ExitCode = code
		return result
	}

	result.ExitCode = 1
	result.Error = fmt.Errorf("failed to run %s: %w", inv.Program, err)
	return result
}

func teeWriter(w io.Writer, buf *bytes.Buffer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(w, buf)
}
