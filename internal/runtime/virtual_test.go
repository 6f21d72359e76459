// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pyship/pyship/internal/testutil"
)

func TestVirtualShellRunWritesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out strings.Builder
	res := NewVirtualShell().Run(context.Background(), Script{
		Name:   "pre_build",
		Source: `echo "version=$APP_VERSION" > version.txt; echo done`,
		Dir:    dir,
		Env:    []string{"APP_VERSION=1.2.0"},
		Stdout: &out,
	})
	if !res.Success() {
		t.Fatalf("Run() = %+v, want success", res)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dir, "version.txt")); got != "version=1.2.0\n" {
		t.Errorf("version.txt = %q", got)
	}
	if out.String() != "done\n" {
		t.Errorf("stdout = %q, want done", out.String())
	}
}

func TestVirtualShellExitStatus(t *testing.T) {
	t.Parallel()

	res := NewVirtualShell().Run(context.Background(), Script{Name: "post_build", Source: "exit 7", Env: []string{}})
	if res.Error != nil {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	if res.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", res.ExitCode)
	}
}

func TestVirtualShellValidate(t *testing.T) {
	t.Parallel()

	sh := NewVirtualShell()
	if err := sh.Validate(Script{Name: "ok", Source: "echo hi"}); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}
	if err := sh.Validate(Script{Name: "bad", Source: "if then fi ("}); err == nil {
		t.Error("Validate(invalid) should fail")
	}
	if err := sh.Validate(Script{Name: "empty", Source: "  "}); err == nil {
		t.Error("Validate(empty) should fail")
	}
}
