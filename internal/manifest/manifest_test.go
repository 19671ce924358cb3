package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesSiteFiles(t *testing.T) {
	s := Default()

	require.Equal(t, []string{"script.js", "preferences.js"}, s.Scripts)
	require.Equal(t, []string{"styles.css"}, s.Stylesheets)
	require.Equal(t, []string{"index.html", "preferences.html", "privacy.html", "terms.html"}, s.Markup)
	require.Equal(t, 7, s.Len())
	require.NoError(t, s.Validate())
}

func TestEntries_CategoryOrder(t *testing.T) {
	s := SourceSet{
		Scripts:     []string{"b.js", "a.js"},
		Stylesheets: []string{"site.css"},
		Markup:      []string{"index.html"},
	}

	require.Equal(t, []Entry{
		{Category: CategoryScript, Path: "b.js"},
		{Category: CategoryScript, Path: "a.js"},
		{Category: CategoryStylesheet, Path: "site.css"},
		{Category: CategoryMarkup, Path: "index.html"},
	}, s.Entries())
	require.Equal(t, []string{"site.css"}, s.Files(CategoryStylesheet))
	require.Nil(t, s.Files(Category("unknown")))
}

func TestValidate_RejectsBadPaths(t *testing.T) {
	cases := map[string]SourceSet{
		"empty set":    {},
		"absolute":     {Scripts: []string{"/etc/passwd"}},
		"escapes root": {Markup: []string{"../index.html"}},
		"unclean":      {Stylesheets: []string{"css/../styles.css"}},
		"blank":        {Scripts: []string{"  "}},
		"duplicate":    {Scripts: []string{"a.js"}, Markup: []string{"a.js"}},
	}

	for name, set := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, set.Validate())
		})
	}
}

func TestValidate_AllowsNestedPaths(t *testing.T) {
	s := SourceSet{Scripts: []string{"js/app.js"}, Markup: []string{"pages/about.html"}}
	require.NoError(t, s.Validate())
}
