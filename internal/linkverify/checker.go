package linkverify

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

// Issue is a local reference whose target is missing from the output tree.
type Issue struct {
	Page   string // page path relative to the output root
	URL    string // reference as written
	Tag    string
	Target string // resolved path relative to the output root
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: <%s> %s (missing %s)", i.Page, i.Tag, i.URL, i.Target)
}

// Check parses each page (paths relative to outRoot) and returns the local references
// that do not resolve to a file under outRoot. A reference to a directory resolves to
// its index.html.
func Check(fs afero.Fs, outRoot string, pages []string) ([]Issue, error) {
	var issues []Issue
	for _, page := range pages {
		pagePath := filepath.Join(outRoot, filepath.FromSlash(page))
		f, err := fs.Open(pagePath)
		if err != nil {
			return issues, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").
				WithSeverity(errors.SeverityError).WithContext("html_path", pagePath).Build()
		}
		links, err := ExtractLinksFromReader(f)
		_ = f.Close()
		if err != nil {
			return issues, err
		}

		for _, l := range links {
			if !IsLocal(l.URL) {
				continue
			}
			target, ok := resolve(page, l.URL)
			if !ok || !exists(fs, outRoot, target) {
				issues = append(issues, Issue{Page: page, URL: l.URL, Tag: l.Tag, Target: target})
			}
		}
	}
	return issues, nil
}

// resolve maps a local reference on page to a slash path relative to the output root.
// ok is false when the reference climbs above the root.
func resolve(page, link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return link, false
	}
	p := u.Path
	dirRef := strings.HasSuffix(p, "/")

	var joined string
	if strings.HasPrefix(p, "/") {
		joined = path.Clean(p[1:])
	} else {
		joined = path.Join(path.Dir(page), p)
	}
	if joined == "." {
		joined = ""
	}
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return joined, false
	}
	if dirRef || joined == "" {
		joined = path.Join(joined, "index.html")
	}
	return joined, true
}

func exists(fs afero.Fs, outRoot, target string) bool {
	full := filepath.Join(outRoot, filepath.FromSlash(target))
	info, err := fs.Stat(full)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := fs.Stat(filepath.Join(full, "index.html"))
		return err == nil
	}
	return true
}
