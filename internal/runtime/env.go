// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"strings"
)

// EnvToSlice converts an env map into sorted KEY=VALUE entries.
func EnvToSlice(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// EnvFromSlice converts KEY=VALUE entries into a map. Later entries win.
func EnvFromSlice(entries []string) map[string]string {
	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// MergeEnv returns base with every key in set overridden and every key in
// unset removed. Key comparison is case-insensitive when foldCase is true,
// matching how Windows treats environment names.
func MergeEnv(base []string, set map[string]string, unset []string, foldCase bool) []string {
	norm := func(k string) string {
		if foldCase {
			return strings.ToUpper(k)
		}
		return k
	}

	drop := make(map[string]bool, len(set)+len(unset))
	for k := range set {
		drop[norm(k)] = true
	}
	for _, k := range unset {
		drop[norm(k)] = true
	}

	out := make([]string, 0, len(base)+len(set))
	for _, entry := range base {
		k, _, _ := strings.Cut(entry, "=")
		if drop[norm(k)] {
			continue
		}
		out = append(out, entry)
	}
	return append(out, EnvToSlice(set)...)
}

// LookupEnv finds key in entries.
func LookupEnv(entries []string, key string, foldCase bool) (string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		k, v, _ := strings.Cut(entries[i], "=")
		if k == key || (foldCase && strings.EqualFold(k, key)) {
			return v, true
		}
	}
	return "", false
}

// LookPath resolves file against the PATH in env, which is the search path
// a process started with env would see. When env has no PATH, or file
// already names a path, it defers to exec.LookPath.
func LookPath(file string, env []string) (string, error) {
	searchPath, ok := LookupEnv(env, "PATH", goruntime.GOOS == "windows")
	if !ok || filepath.Base(file) != file {
		return exec.LookPath(file)
	}
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		if path, err := exec.LookPath(filepath.Join(dir, file)); err == nil {
			return path, nil
		}
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}
