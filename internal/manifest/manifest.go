// Package manifest describes the fixed set of site sources a build processes.
//
// The set is plain configuration: the orchestrator receives it as a value, so tests can
// supply a synthetic file list instead of the site's real one.
package manifest

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Category partitions source files by the minifier that handles them.
type Category string

const (
	CategoryScript     Category = "script"
	CategoryStylesheet Category = "stylesheet"
	CategoryMarkup     Category = "markup"
)

// Categories lists every category in processing order.
var Categories = []Category{CategoryScript, CategoryStylesheet, CategoryMarkup}

// Entry is one source file with its category. Path is relative to the source root
// and is also the path the minified file gets under the output directory.
type Entry struct {
	Category Category
	Path     string
}

// SourceSet is the static partition of site files into script, stylesheet and markup.
type SourceSet struct {
	Scripts     []string `yaml:"scripts"`
	Stylesheets []string `yaml:"stylesheets"`
	Markup      []string `yaml:"markup"`
}

// Default returns the site's fixed source list.
func Default() SourceSet {
	return SourceSet{
		Scripts:     []string{"script.js", "preferences.js"},
		Stylesheets: []string{"styles.css"},
		Markup:      []string{"index.html", "preferences.html", "privacy.html", "terms.html"},
	}
}

// Entries flattens the set in category order, preserving list order within a category.
func (s SourceSet) Entries() []Entry {
	entries := make([]Entry, 0, s.Len())
	for _, p := range s.Scripts {
		entries = append(entries, Entry{Category: CategoryScript, Path: p})
	}
	for _, p := range s.Stylesheets {
		entries = append(entries, Entry{Category: CategoryStylesheet, Path: p})
	}
	for _, p := range s.Markup {
		entries = append(entries, Entry{Category: CategoryMarkup, Path: p})
	}
	return entries
}

// Len returns the total number of files across categories.
func (s SourceSet) Len() int {
	return len(s.Scripts) + len(s.Stylesheets) + len(s.Markup)
}

// Files returns the paths listed for a category.
func (s SourceSet) Files(c Category) []string {
	switch c {
	case CategoryScript:
		return s.Scripts
	case CategoryStylesheet:
		return s.Stylesheets
	case CategoryMarkup:
		return s.Markup
	default:
		return nil
	}
}

// Validate checks the structural invariants of the set: relative, clean, unique paths
// that stay inside the source root. File existence is checked by the build itself.
func (s SourceSet) Validate() error {
	if s.Len() == 0 {
		return fmt.Errorf("source set is empty")
	}
	seen := make(map[string]Category, s.Len())
	for _, e := range s.Entries() {
		if err := validatePath(e.Path); err != nil {
			return fmt.Errorf("%s source %q: %w", e.Category, e.Path, err)
		}
		key := filepath.ToSlash(e.Path)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("%s source %q is already listed as %s", e.Category, e.Path, prev)
		}
		seen[key] = e.Category
	}
	return nil
}

func validatePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("empty path")
	}
	slashed := filepath.ToSlash(p)
	if path.IsAbs(slashed) || filepath.IsAbs(p) {
		return fmt.Errorf("path must be relative")
	}
	if path.Clean(slashed) != slashed {
		return fmt.Errorf("path must be clean")
	}
	if slashed == ".." || strings.HasPrefix(slashed, "../") {
		return fmt.Errorf("path escapes the source root")
	}
	return nil
}
