// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"github.com/pyship/pyship/internal/testutil"
	"github.com/pyship/pyship/pkg/buildspec"
)

func TestClean(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	testutil.MustWriteFile(t, f.path("build", buildspec.DefaultName, "warn.txt"), "")
	testutil.MustWriteFile(t, f.path(buildspec.DefaultName+".spec"), "")
	testutil.MustWriteFile(t, f.path("dist", buildspec.DefaultName), "ELF")
	testutil.MustWriteFile(t, f.path(".venv", "pyvenv.cfg"), "")

	if err := f.run(t, "clean"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	testutil.AssertNotExists(t, f.path("build"))
	testutil.AssertNotExists(t, f.path(buildspec.DefaultName+".spec"))
	testutil.AssertNotExists(t, f.path("dist", buildspec.DefaultName))
	testutil.AssertExists(t, f.path(".venv", "pyvenv.cfg"))
	testutil.AssertExists(t, f.path("app.py"))

	if n := strings.Count(f.stdout.String(), "Removed"); n != 3 {
		t.Errorf("reported %d removals, want 3:\n%s", n, f.stdout.String())
	}
}

func TestCleanNothingToDo(t *testing.T) {
	t.Parallel()

	f := newCLIFixture(t)
	if err := f.run(t, "clean"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if !strings.Contains(f.stdout.String(), "Nothing to clean") {
		t.Errorf("stdout = %q", f.stdout.String())
	}
}
