// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// KindRequirements is a pip requirements file.
	KindRequirements Kind = "requirements"
	// KindPyproject is a PEP 621 pyproject.toml.
	KindPyproject Kind = "pyproject"
)

var (
	// ErrUnknownKind is returned for manifests that are neither .txt nor pyproject.toml.
	ErrUnknownKind = errors.New("unknown manifest kind")
	// ErrInvalidRequirement is returned for lines that do not start with a package name.
	ErrInvalidRequirement = errors.New("invalid requirement")
	// ErrIncludeCycle is returned when -r includes loop back on themselves.
	ErrIncludeCycle = errors.New("requirements include cycle")

	namePattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(\[[^\]]*\])?`)
	separators  = regexp.MustCompile(`[-_.]+`)
)

type (
	// Kind identifies a manifest format.
	Kind string

	// Requirement is one dependency line.
	Requirement struct {
		// Name is the distribution name as written.
		Name string
		// Extras is the bracketed extras list, without brackets.
		Extras string
		// Spec is the version specifier (for example "==10.4.0" or ">=4,<5").
		Spec string
		// Marker is the environment marker after ';'.
		Marker string
		// Raw is the original line.
		Raw string
	}

	pyproject struct {
		Project struct {
			Name                 string              `toml:"name"`
			Dependencies         []string            `toml:"dependencies"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
	}
)

// KindOf classifies path by its name.
func KindOf(path string) (Kind, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case base == "pyproject.toml":
		return KindPyproject, nil
	case strings.HasSuffix(base, ".txt") || strings.HasSuffix(base, ".in"):
		return KindRequirements, nil
	default:
		return "", fmt.Errorf("%w: %s (expected a requirements .txt file or pyproject.toml)", ErrUnknownKind, path)
	}
}

// Parse reads the manifest at path.
func Parse(path string) ([]Requirement, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	if kind == KindPyproject {
		return parsePyproject(path)
	}
	return parseRequirementsFile(path, map[string]bool{})
}

// ParseRequirement parses a single PEP 508 style line.
func ParseRequirement(line string) (Requirement, error) {
	raw := strings.TrimSpace(line)
	req := Requirement{Raw: raw}

	rest := raw
	if before, marker, ok := strings.Cut(rest, ";"); ok {
		rest = strings.TrimSpace(before)
		req.Marker = strings.TrimSpace(marker)
	}

	m := namePattern.FindStringSubmatch(rest)
	if m == nil {
		return Requirement{}, fmt.Errorf("%w: %q", ErrInvalidRequirement, raw)
	}
	req.Name = m[1]
	req.Extras = strings.Trim(m[2], "[]")
	req.Spec = strings.TrimSpace(rest[len(m[0]):])
	return req, nil
}

// NormalizeName applies PEP 503 normalization ("Pillow" and "pillow" match).
func NormalizeName(name string) string {
	return strings.ToLower(separators.ReplaceAllString(name, "-"))
}

// String renders the requirement as pip accepts it on the command line.
func (r Requirement) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if r.Extras != "" {
		sb.WriteString("[" + r.Extras + "]")
	}
	sb.WriteString(r.Spec)
	if r.Marker != "" {
		sb.WriteString("; " + r.Marker)
	}
	return sb.String()
}

// Pinned reports whether the requirement pins an exact version.
func (r Requirement) Pinned() bool {
	return strings.HasPrefix(r.Spec, "==") && !strings.ContainsAny(r.Spec, ",*")
}

func parseRequirementsFile(path string, seen map[string]bool) ([]Requirement, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if seen[abs] {
		return nil, fmt.Errorf("%w: %s", ErrIncludeCycle, path)
	}
	seen[abs] = true
	defer delete(seen, abs)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements file: %w", err)
	}

	var reqs []Requirement
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if idx := strings.Index(line, " #"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if include, ok := includeTarget(line); ok {
			nested, err := parseRequirementsFile(filepath.Join(filepath.Dir(path), include), seen)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, nested...)
			continue
		}
		// Other pip options (--only-binary, -i, -e ...) do not name a requirement.
		if strings.HasPrefix(line, "-") {
			continue
		}

		req, err := ParseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func includeTarget(line string) (string, bool) {
	for _, prefix := range []string{"-r ", "--requirement ", "--requirement="} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	if strings.HasPrefix(line, "-r") && len(line) > 2 {
		return strings.TrimSpace(line[2:]), true
	}
	return "", false
}

func parsePyproject(path string) ([]Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pyproject: %w", err)
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reqs := make([]Requirement, 0, len(doc.Project.Dependencies))
	for _, line := range doc.Project.Dependencies {
		req, err := ParseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("%s: project.dependencies: %w", path, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
