// SPDX-License-Identifier: MPL-2.0

// Package buildspec defines the pyship project file (pyship.cue): which
// Python entry point to package, how to find an interpreter, whether to use
// an isolated virtual environment, which dependencies to install and with
// which strategy, and how the packaging tool's success is judged.
//
// Files are validated against the embedded #Project CUE schema and then by
// Go-only rules (Project.Validate) that CUE cannot express.
package buildspec
