package linkverify

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestExtractLinksFromReader(t *testing.T) {
	doc := `<html><head><link rel="stylesheet" href="styles.css"><script src="script.js"></script></head>
<body><a href="privacy.html">Privacy</a><a href="#top">Top</a><img src="images/logo.png" alt="">
<video><source src="media/intro.mp4"></video><a href="">empty</a></body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(doc))
	require.NoError(t, err)

	var urls []string
	for _, l := range links {
		urls = append(urls, l.Tag+":"+l.URL)
	}
	require.Equal(t, []string{
		"link:styles.css",
		"script:script.js",
		"a:privacy.html",
		"a:#top",
		"img:images/logo.png",
		"source:media/intro.mp4",
	}, urls)
}

func TestIsLocal(t *testing.T) {
	tests := map[string]bool{
		"privacy.html":             true,
		"/images/logo.png":         true,
		"terms.html#section-2":     true,
		"#top":                     false,
		"mailto:hello@example.com": false,
		"tel:+4712345678":          false,
		"javascript:void(0)":       false,
		"https://example.com/":     false,
		"//cdn.example.com/x.js":   false,
		"?utm=1":                   false,
	}
	for link, want := range tests {
		require.Equal(t, want, IsLocal(link), link)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		page, link, want string
		ok               bool
	}{
		{"index.html", "privacy.html", "privacy.html", true},
		{"index.html", "/images/logo.png", "images/logo.png", true},
		{"legal/terms.html", "../index.html", "index.html", true},
		{"legal/terms.html", "./", "legal/index.html", true},
		{"index.html", "/", "index.html", true},
		{"index.html", "images/a%20b.png?v=2", "images/a b.png", true},
		{"index.html", "../secret.txt", "../secret.txt", false},
	}
	for _, tt := range tests {
		got, ok := resolve(tt.page, tt.link)
		require.Equal(t, tt.ok, ok, tt.link)
		require.Equal(t, tt.want, got, tt.link)
	}
}

func TestCheck(t *testing.T) {
	fs := afero.NewMemMapFs()
	write := func(name, content string) {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("dist", name), []byte(content), 0o644))
	}
	write("index.html", `<a href="privacy.html">p</a><a href="terms.html">t</a><img src="images/logo.png"><a href="https://example.com">x</a>`)
	write("privacy.html", `<a href="/">home</a><img src="images/missing.png">`)
	write("images/logo.png", "png")

	issues, err := Check(fs, "dist", []string{"index.html", "privacy.html"})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	require.Equal(t, Issue{Page: "index.html", URL: "terms.html", Tag: "a", Target: "terms.html"}, issues[0])
	require.Equal(t, "images/missing.png", issues[1].Target)
	require.Contains(t, issues[1].String(), "privacy.html: <img> images/missing.png")
}

func TestCheckMissingPage(t *testing.T) {
	_, err := Check(afero.NewMemMapFs(), "dist", []string{"index.html"})
	require.Error(t, err)
}
