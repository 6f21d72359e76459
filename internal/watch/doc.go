// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds a project when its sources change.
//
// A Watcher registers every non-ignored directory under a base directory with
// fsnotify, filters events through doublestar glob patterns, and calls
// OnChange once per quiet period with the set of changed paths. A change that
// arrives while a rebuild is still running is held and delivered after it.
package watch
