// SPDX-License-Identifier: MPL-2.0

// Package venv creates, reuses and activates Python virtual environments.
// Activation is done by computing the environment variables an activate
// script would set, so it works the same from any parent shell.
package venv
