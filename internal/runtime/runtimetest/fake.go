// SPDX-License-Identifier: MPL-2.0

// Package runtimetest provides a scripted runtime.Runner for tests that must
// not start real python, pip or PyInstaller processes.
package runtimetest

import (
	"context"
	"strings"
	"sync"

	"github.com/pyship/pyship/internal/runtime"
)

type (
	// Responder produces the result for a matched invocation. It may also
	// simulate side effects such as creating the files a tool would write.
	Responder func(inv runtime.Invocation) *runtime.Result

	handler struct {
		match   func(inv runtime.Invocation) bool
		respond Responder
	}

	// Runner records every invocation and answers with the first matching
	// handler. Unmatched invocations succeed.
	Runner struct {
		mu       sync.Mutex
		handlers []handler
		calls    []runtime.Invocation
	}
)

// New creates an empty Runner.
func New() *Runner {
	return &Runner{}
}

// Handle registers a responder for invocations accepted by match.
func (r *Runner) Handle(match func(inv runtime.Invocation) bool, respond Responder) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler{match: match, respond: respond})
	return r
}

// HandleContains registers a responder for invocations whose command line
// (program and args joined by spaces) contains substr.
func (r *Runner) HandleContains(substr string, respond Responder) *Runner {
	return r.Handle(func(inv runtime.Invocation) bool {
		return strings.Contains(CommandLine(inv), substr)
	}, respond)
}

// Run implements runtime.Runner.
func (r *Runner) Run(_ context.Context, inv runtime.Invocation) *runtime.Result {
	r.mu.Lock()
	r.calls = append(r.calls, inv)
	handlers := r.handlers
	r.mu.Unlock()

	for _, h := range handlers {
		if h.match(inv) {
			res := h.respond(inv)
			if inv.Stdout != nil && res.Output != "" {
				_, _ = inv.Stdout.Write([]byte(res.Output))
			}
			if inv.Stderr != nil && res.ErrOutput != "" {
				_, _ = inv.Stderr.Write([]byte(res.ErrOutput))
			}
			return res
		}
	}
	return runtime.NewSuccessResult()
}

// Calls returns a copy of the recorded invocations.
func (r *Runner) Calls() []runtime.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]runtime.Invocation, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many recorded command lines contain substr.
func (r *Runner) Count(substr string) int {
	n := 0
	for _, inv := range r.Calls() {
		if strings.Contains(CommandLine(inv), substr) {
			n++
		}
	}
	return n
}

// CommandLine joins program and args with single spaces.
func CommandLine(inv runtime.Invocation) string {
	return strings.Join(append([]string{inv.Program}, inv.Args...), " ")
}

// Exit responds with the given exit code.
func Exit(code runtime.ExitCode) Responder {
	return func(runtime.Invocation) *runtime.Result {
		return runtime.NewExitCodeResult(code)
	}
}

// ExitWithStderr responds with the given exit code and stderr text.
func ExitWithStderr(code runtime.ExitCode, stderr string) Responder {
	return func(runtime.Invocation) *runtime.Result {
		return &runtime.Result{ExitCode: code, ErrOutput: stderr}
	}
}

// Output responds with exit code 0 and the given captured stdout.
func Output(out string) Responder {
	return func(runtime.Invocation) *runtime.Result {
		return &runtime.Result{Output: out}
	}
}

// Fail responds as if the program could not be started.
func Fail(err error) Responder {
	return func(runtime.Invocation) *runtime.Result {
		return runtime.NewErrorResult(1, err)
	}
}

// Do runs effect and then responds with exit code 0.
func Do(effect func(inv runtime.Invocation)) Responder {
	return func(inv runtime.Invocation) *runtime.Result {
		effect(inv)
		return runtime.NewSuccessResult()
	}
}
