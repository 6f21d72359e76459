// SPDX-License-Identifier: MPL-2.0

// Package install drives pip: upgrading the installer tooling and installing
// a project's dependencies with a binary preference and at most one relaxed
// retry.
package install
