// SPDX-License-Identifier: MPL-2.0

// Package probe finds a usable Python interpreter. Candidates are tried in
// order; the first one that resolves on the search path, answers --version
// with exit code 0 and satisfies the minimum version wins.
package probe
