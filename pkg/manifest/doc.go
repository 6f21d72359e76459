// SPDX-License-Identifier: MPL-2.0

// Package manifest reads Python dependency manifests: requirements.txt files
// (with nested -r includes) and the [project] table of pyproject.toml.
package manifest
