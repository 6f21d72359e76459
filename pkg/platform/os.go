// SPDX-License-Identifier: MPL-2.0

package platform

import "path/filepath"

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// ExecutableName appends ".exe" on Windows.
func ExecutableName(name, goos string) string {
	if goos == Windows {
		return name + ".exe"
	}
	return name
}

// VenvBinDir is the directory holding a virtual environment's executables:
// Scripts on Windows, bin elsewhere.
func VenvBinDir(venvDir, goos string) string {
	if goos == Windows {
		return filepath.Join(venvDir, "Scripts")
	}
	return filepath.Join(venvDir, "bin")
}

// VenvPython is the interpreter path inside a virtual environment.
func VenvPython(venvDir, goos string) string {
	return filepath.Join(VenvBinDir(venvDir, goos), ExecutableName("python", goos))
}

// PathListSeparator returns the PATH separator for goos.
func PathListSeparator(goos string) string {
	if goos == Windows {
		return ";"
	}
	return ":"
}
