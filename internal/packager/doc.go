// SPDX-License-Identifier: MPL-2.0

// Package packager runs PyInstaller and decides whether a build succeeded,
// either by the presence of the produced executable or by the tool's exit
// code.
package packager
