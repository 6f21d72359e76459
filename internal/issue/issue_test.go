// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalogComplete(t *testing.T) {
	t.Parallel()

	for id := InterpreterNotFoundId; id <= HookFailedId; id++ {
		entry := Get(id)
		if entry == nil {
			t.Errorf("Get(%d) = nil", id)
			continue
		}
		if entry.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, entry.Id())
		}
		if strings.TrimSpace(string(entry.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", id)
		}
	}

	values := Values()
	if len(values) != int(HookFailedId) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), HookFailedId)
	}
	for i := 1; i < len(values); i++ {
		if values[i-1].Id() >= values[i].Id() {
			t.Errorf("Values() not sorted at %d", i)
		}
	}
}

func TestRenderIncludesLinks(t *testing.T) {
	t.Parallel()

	out, err := Get(InterpreterNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "python.org") {
		t.Errorf("rendered issue should mention python.org:\n%s", out)
	}
	if !strings.Contains(out, "See also") {
		t.Errorf("rendered issue should list doc links:\n%s", out)
	}
}

func TestDocLinksIsCopy(t *testing.T) {
	t.Parallel()

	entry := Get(PackagingFailedId)
	links := entry.DocLinks()
	links[0] = "mutated"
	if entry.DocLinks()[0] == "mutated" {
		t.Error("DocLinks() should return a copy")
	}
}
