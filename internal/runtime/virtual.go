// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Script is a shell snippet run by VirtualShell.
	Script struct {
		// Name labels the script in parse errors (for example "pre_build").
		Name   string
		Source string
		Dir    string
		// Env is the complete environment; nil inherits the parent's.
		Env    []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// VirtualShell runs POSIX shell snippets in the embedded mvdan/sh interpreter.
	// External commands named by the snippet are resolved on the snippet's PATH.
	VirtualShell struct{}
)

// NewVirtualShell creates a VirtualShell.
func NewVirtualShell() *VirtualShell {
	return &VirtualShell{}
}

// Validate parses the script without running it.
func (s *VirtualShell) Validate(script Script) error {
	if strings.TrimSpace(script.Source) == "" {
		return errors.New("script has no content to execute")
	}
	if _, err := syntax.NewParser().Parse(strings.NewReader(script.Source), script.Name); err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}
	return nil
}

// Run executes the script and maps `exit N` to the Result exit code.
func (s *VirtualShell) Run(ctx context.Context, script Script) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script.Source), script.Name)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to parse script: %w", err))
	}

	env := script.Env
	if env == nil {
		env = os.Environ()
	}
	stdout, stderr := script.Stdout, script.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if script.Dir != "" {
		opts = append(opts, interp.Dir(script.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return NewExitCodeResult(ExitCode(status))
		}
		return NewErrorResult(1, fmt.Errorf("script execution failed: %w", err))
	}
	return NewSuccessResult()
}
