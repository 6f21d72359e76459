// SPDX-License-Identifier: MPL-2.0

// Package runtime runs the external programs a build needs (python, pip,
// the packaging tool) and the build hooks.
//
// Programs run through a Runner so tests can substitute scripted results.
// NativeRunner is backed by os/exec. Hooks run in VirtualShell, the embedded
// mvdan/sh interpreter, so a hook written once behaves the same under cmd.exe
// and POSIX shells.
package runtime
