// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs a pyship build: probe, environment, pre-build hook,
// tooling upgrade, install, package and post-build hook, strictly in that
// order. The first failing step stops the build and every later step is
// recorded as skipped.
package pipeline
