// SPDX-License-Identifier: MPL-2.0

// Package platform holds the OS-dependent naming rules pyship needs: where a
// virtual environment keeps its interpreter and which suffix an executable
// artifact carries.
package platform
