// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"path/filepath"
	"testing"

	"github.com/pyship/pyship/internal/testutil"
)

func TestParseEnvFile(t *testing.T) {
	t.Parallel()

	content := `
# build settings
PIP_INDEX_URL=https://pypi.example/simple
export PYTHONUTF8=1
QUOTED="line1\nline2"
LITERAL='a\nb'
EMPTY=
TRAILING=value # comment
`
	env := map[string]string{}
	if err := ParseEnvFile(env, []byte(content), ".env"); err != nil {
		t.Fatalf("ParseEnvFile() error = %v", err)
	}

	want := map[string]string{
		"PIP_INDEX_URL": "https://pypi.example/simple",
		"PYTHONUTF8":    "1",
		"QUOTED":        "line1\nline2",
		"LITERAL":       `a\nb`,
		"EMPTY":         "",
		"TRAILING":      "value",
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%s] = %q, want %q", k, env[k], v)
		}
	}
}

func TestParseEnvFileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing equals", content: "JUSTAKEY"},
		{name: "empty key", content: "=value"},
		{name: "unterminated double", content: `K="abc`},
		{name: "unterminated single", content: `K='abc`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := ParseEnvFile(map[string]string{}, []byte(tt.content), ".env"); err == nil {
				t.Errorf("ParseEnvFile(%q) should fail", tt.content)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "build.env"), "A=1\n")

	env := map[string]string{"A": "0"}
	if err := LoadEnvFile(env, "build.env", dir); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if env["A"] != "1" {
		t.Errorf("env[A] = %q, want 1", env["A"])
	}

	if err := LoadEnvFile(env, "missing.env?", dir); err != nil {
		t.Errorf("optional missing file should be ignored, got %v", err)
	}
	if err := LoadEnvFile(env, "missing.env", dir); err == nil {
		t.Error("required missing file should fail")
	}
}
