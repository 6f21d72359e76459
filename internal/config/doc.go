// SPDX-License-Identifier: MPL-2.0

// Package config handles pyship's user configuration using Viper with CUE as the file format.
//
// Configuration is loaded from the platform configuration directory
// ($XDG_CONFIG_HOME/pyship/config.cue on Linux, ~/Library/Application Support/pyship/config.cue
// on macOS, %APPDATA%\pyship\config.cue on Windows), falling back to ./config.cue. Every key
// can be overridden with a PYSHIP_ environment variable (PYSHIP_UI_PAUSE, PYSHIP_BUILD_PRESET).
//
// Files are validated against the embedded #Config schema (config_schema.cue) before they
// are merged over the defaults.
package config
