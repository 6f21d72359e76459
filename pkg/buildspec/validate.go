// SPDX-License-Identifier: MPL-2.0

package buildspec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pyship/pyship/pkg/manifest"
	"github.com/pyship/pyship/pkg/platform"

	"mvdan.cc/sh/v3/syntax"
)

// ValidationErrors collects every problem found in a project.
type ValidationErrors []error

// Error joins the collected messages.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	if len(msgs) == 1 {
		return "invalid project: " + msgs[0]
	}
	return "invalid project:\n  " + strings.Join(msgs, "\n  ")
}

// Unwrap exposes ErrInvalidProject and the individual errors to errors.Is/As.
func (errs ValidationErrors) Unwrap() []error {
	return append([]error{ErrInvalidProject}, errs...)
}

// Validate checks the rules the CUE schema cannot express. It returns nil or
// ValidationErrors.
func (p *Project) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fmt.Errorf("name must not be empty"))
	} else if strings.ContainsAny(p.Name, `/\:`) {
		errs = append(errs, fmt.Errorf("name %q must not contain path separators", p.Name))
	} else if platform.IsReservedName(p.Name) {
		errs = append(errs, fmt.Errorf("name %q is a reserved device name on Windows", p.Name))
	}

	ext := strings.ToLower(filepath.Ext(p.Entry))
	if ext != ".py" && ext != ".pyw" {
		errs = append(errs, fmt.Errorf("entry %q must be a .py or .pyw script", p.Entry))
	}

	if ok, fieldErrs := p.Environment.Mode.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := p.Install.Strategy.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := p.Packager.Success.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}

	if p.Install.Fallback && p.Install.Strategy == StrategyAny {
		errs = append(errs, fmt.Errorf("install.fallback requires strategy %q or %q", StrategyBinaryOnly, StrategyPreferBinary))
	}

	if filepath.Clean(p.Environment.Dir) == filepath.Clean(p.OutputDir) && p.UsesVenv() {
		errs = append(errs, fmt.Errorf("environment.dir and output_dir must differ"))
	}

	seen := make(map[string]int, len(p.Dependencies.Packages))
	for i, pkg := range p.Dependencies.Packages {
		if strings.TrimSpace(pkg.Name) == "" {
			errs = append(errs, fmt.Errorf("dependencies.packages[%d]: name must not be empty", i))
			continue
		}
		key := manifest.NormalizeName(pkg.Name)
		if first, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("dependencies.packages[%d]: %q duplicates dependencies.packages[%d]", i, pkg.Name, first))
			continue
		}
		seen[key] = i
	}

	if p.Dependencies.Manifest != "" {
		if _, err := manifest.KindOf(p.Dependencies.Manifest); err != nil {
			errs = append(errs, fmt.Errorf("dependencies.manifest: %w", err))
		}
	}

	hooks := []struct{ field, src string }{
		{"hooks.pre_build", p.Hooks.PreBuild},
		{"hooks.post_build", p.Hooks.PostBuild},
	}
	for _, h := range hooks {
		if strings.TrimSpace(h.src) == "" {
			continue
		}
		if _, err := syntax.NewParser().Parse(strings.NewReader(h.src), h.field); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.field, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
