// SPDX-License-Identifier: MPL-2.0

package buildspec

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pyship/pyship/pkg/cueutil"
)

//go:embed project_schema.cue
var projectSchema []byte

// ErrProjectNotFound is returned by Load when the project file is missing.
var ErrProjectNotFound = errors.New("project file not found")

// Load reads and parses the project file at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, path)
		}
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes project file content. path is used for error messages and
// to resolve relative paths.
func Parse(data []byte, path string) (*Project, error) {
	decoded, err := cueutil.Decode[Project](projectSchema, data, "#Project", cueutil.WithFilename(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}

	p := decoded.Value
	p.FilePath = path
	p.ApplyDefaults()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyDefaults fills zero-valued fields with the schema defaults, so that
// projects built in Go code behave like decoded ones.
func (p *Project) ApplyDefaults() {
	if p.OutputDir == "" {
		p.OutputDir = "dist"
	}
	if p.WorkDir == "" {
		p.WorkDir = "build"
	}
	if len(p.Interpreter.Candidates) == 0 {
		p.Interpreter.Candidates = []string{"python", "py", "python3"}
	}
	if p.Environment.Mode == "" {
		p.Environment.Mode = EnvironmentVenv
	}
	if p.Environment.Dir == "" {
		p.Environment.Dir = ".venv"
	}
	if p.Install.Strategy == "" {
		p.Install.Strategy = StrategyBinaryOnly
	}
	if p.Packager.Module == "" {
		p.Packager.Module = "PyInstaller"
	}
	if p.Packager.Success == "" {
		p.Packager.Success = SuccessArtifact
	}
}
