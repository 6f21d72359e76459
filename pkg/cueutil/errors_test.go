// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single", path: []string{"name"}, want: "name"},
		{name: "nested", path: []string{"install", "strategy"}, want: "install.strategy"},
		{name: "index", path: []string{"dependencies", "packages", "1", "name"}, want: "dependencies.packages[1].name"},
		{name: "leading digits are a field", path: []string{"0"}, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestFormatErrorNonCUE(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := FormatError(base, "pyship.cue")
	if !errors.Is(err, base) {
		t.Errorf("FormatError() should wrap non-CUE errors, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "pyship.cue: ") {
		t.Errorf("FormatError() = %q, want file prefix", err.Error())
	}
	if FormatError(nil, "x") != nil {
		t.Error("FormatError(nil) should be nil")
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "f.cue"); err != nil {
		t.Errorf("CheckFileSize() at limit = %v, want nil", err)
	}
	if err := CheckFileSize(make([]byte, 11), 10, "f.cue"); err == nil {
		t.Error("CheckFileSize() over limit should fail")
	}
}

func TestFormatErrorKeepsWrappedChain(t *testing.T) {
	t.Parallel()

	err := FormatError(fmt.Errorf("read project: %w", fs.ErrNotExist), "pyship.cue")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("FormatError() lost the wrapped sentinel: %v", err)
	}
	if want := "pyship.cue: read project: "; !strings.HasPrefix(err.Error(), want) {
		t.Errorf("FormatError() = %q, want prefix %q", err.Error(), want)
	}
}
