// SPDX-License-Identifier: MPL-2.0

package buildspec

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Generate renders p as a pyship.cue document that Parse accepts.
func Generate(p *Project) string {
	var sb strings.Builder
	w := func(indent int, format string, args ...any) {
		sb.WriteString(strings.Repeat("\t", indent))
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	w(0, "// pyship project file. Run 'pyship build' next to it.")
	w(0, "")
	w(0, "name:       %q", p.Name)
	w(0, "entry:      %q", p.Entry)
	w(0, "windowed:   %v", p.Windowed)
	w(0, "one_file:   %v", p.OneFile)
	if p.Icon != "" {
		w(0, "icon:       %q", p.Icon)
	}
	w(0, "output_dir: %q", p.OutputDir)
	w(0, "work_dir:   %q", p.WorkDir)

	w(0, "")
	w(0, "interpreter: {")
	w(1, "candidates: [%s]", quoteList(p.Interpreter.Candidates))
	if p.Interpreter.MinVersion != "" {
		w(1, "min_version: %q", p.Interpreter.MinVersion)
	}
	w(0, "}")

	w(0, "")
	w(0, "environment: {")
	w(1, "mode: %q", p.Environment.Mode)
	w(1, "dir:  %q", p.Environment.Dir)
	w(0, "}")

	w(0, "")
	w(0, "dependencies: {")
	if len(p.Dependencies.Packages) > 0 {
		w(1, "packages: [")
		for _, pkg := range p.Dependencies.Packages {
			if pkg.Version != "" {
				w(2, "{name: %q, version: %q},", pkg.Name, pkg.Version)
			} else {
				w(2, "{name: %q},", pkg.Name)
			}
		}
		w(1, "]")
	}
	if p.Dependencies.Manifest != "" {
		w(1, "manifest: %q", p.Dependencies.Manifest)
	}
	w(0, "}")

	w(0, "")
	w(0, "install: {")
	w(1, "strategy:      %q", p.Install.Strategy)
	w(1, "fallback:      %v", p.Install.Fallback)
	w(1, "upgrade_tools: %v", p.Install.UpgradeTools)
	if p.Install.IndexURL != "" {
		w(1, "index_url: %q", p.Install.IndexURL)
	}
	if len(p.Install.ExtraIndexURLs) > 0 {
		w(1, "extra_index_urls: [%s]", quoteList(p.Install.ExtraIndexURLs))
	}
	w(0, "}")

	w(0, "")
	w(0, "packager: {")
	w(1, "module:  %q", p.Packager.Module)
	if len(p.Packager.Args) > 0 {
		w(1, "args:    [%s]", quoteList(p.Packager.Args))
	}
	w(1, "success: %q", p.Packager.Success)
	w(1, "clean:   %v", p.Packager.Clean)
	w(0, "}")

	if p.Hooks.PreBuild != "" || p.Hooks.PostBuild != "" {
		w(0, "")
		w(0, "hooks: {")
		if p.Hooks.PreBuild != "" {
			w(1, "pre_build:  %q", p.Hooks.PreBuild)
		}
		if p.Hooks.PostBuild != "" {
			w(1, "post_build: %q", p.Hooks.PostBuild)
		}
		w(0, "}")
	}

	if len(p.EnvFiles) > 0 {
		w(0, "")
		w(0, "env_files: [%s]", quoteList(p.EnvFiles))
	}
	if len(p.Env) > 0 {
		w(0, "")
		w(0, "env: {")
		for _, k := range slices.Sorted(maps.Keys(p.Env)) {
			w(1, "%q: %q", k, p.Env[k])
		}
		w(0, "}")
	}

	return sb.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
