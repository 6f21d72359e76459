// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the CUE decoding steps shared by the project file
// (pyship.cue) and the user configuration (config.cue):
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with the schema definition
//  3. Validate and decode into a Go struct
//
// Errors carry the file name and the JSON-style path of the offending field,
// for example "pyship.cue: install.strategy: 3 errors in empty disjunction".
package cueutil
