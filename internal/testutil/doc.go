// SPDX-License-Identifier: MPL-2.0

// Package testutil provides filesystem helpers for tests that fail the test
// immediately instead of returning errors: writing fixture files, creating
// directory trees and asserting whether build outputs exist.
package testutil
