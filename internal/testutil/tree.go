// Package testutil holds assertion helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// TreeAssertions checks the state of a directory tree on an afero file system.
type TreeAssertions struct {
	t    *testing.T
	fs   afero.Fs
	base string
}

// NewTreeAssertions creates an assertion helper rooted at base.
func NewTreeAssertions(t *testing.T, fs afero.Fs, base string) *TreeAssertions {
	return &TreeAssertions{t: t, fs: fs, base: base}
}

func (ta *TreeAssertions) path(rel string) string {
	return filepath.Join(ta.base, filepath.FromSlash(rel))
}

// FileExists validates that a regular file exists.
func (ta *TreeAssertions) FileExists(rel string) *TreeAssertions {
	ta.t.Helper()
	info, err := ta.fs.Stat(ta.path(rel))
	switch {
	case err != nil:
		ta.t.Errorf("Expected file to exist: %s", rel)
	case info.IsDir():
		ta.t.Errorf("Expected %s to be a file, but it's a directory", rel)
	}
	return ta
}

// Absent validates that nothing exists at rel.
func (ta *TreeAssertions) Absent(rel string) *TreeAssertions {
	ta.t.Helper()
	if ok, _ := afero.Exists(ta.fs, ta.path(rel)); ok {
		ta.t.Errorf("Expected %s not to exist", rel)
	}
	return ta
}

// FileEquals validates the exact content of a file.
func (ta *TreeAssertions) FileEquals(rel, want string) *TreeAssertions {
	ta.t.Helper()
	got, err := afero.ReadFile(ta.fs, ta.path(rel))
	if err != nil {
		ta.t.Errorf("Failed to read file %s: %v", rel, err)
		return ta
	}
	if string(got) != want {
		ta.t.Errorf("Unexpected content in %s\nwant: %q\ngot:  %q", rel, want, string(got))
	}
	return ta
}

// FileContains validates that a file contains substr.
func (ta *TreeAssertions) FileContains(rel, substr string) *TreeAssertions {
	ta.t.Helper()
	got, err := afero.ReadFile(ta.fs, ta.path(rel))
	if err != nil {
		ta.t.Errorf("Failed to read file %s: %v", rel, err)
		return ta
	}
	if !strings.Contains(string(got), substr) {
		ta.t.Errorf("Expected file %s to contain %q\nActual content:\n%s", rel, substr, string(got))
	}
	return ta
}

// FileLacks validates that a file does not contain substr.
func (ta *TreeAssertions) FileLacks(rel, substr string) *TreeAssertions {
	ta.t.Helper()
	got, err := afero.ReadFile(ta.fs, ta.path(rel))
	if err != nil {
		ta.t.Errorf("Failed to read file %s: %v", rel, err)
		return ta
	}
	if strings.Contains(string(got), substr) {
		ta.t.Errorf("Expected file %s not to contain %q", rel, substr)
	}
	return ta
}

// FileCount validates the number of regular files directly inside dir.
func (ta *TreeAssertions) FileCount(rel string, want int) *TreeAssertions {
	ta.t.Helper()
	entries, err := afero.ReadDir(ta.fs, ta.path(rel))
	if err != nil {
		ta.t.Errorf("Failed to read directory %s: %v", rel, err)
		return ta
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	if n != want {
		ta.t.Errorf("Expected %d files in %s, found %d", want, rel, n)
	}
	return ta
}
