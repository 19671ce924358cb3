package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebundle/internal/config"
	"git.home.luguber.info/inful/sitebundle/internal/eventstore"
	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/report"
)

func TestParseLogLevel(t *testing.T) {
	t.Setenv(LogLevelEnv, "")
	require.Equal(t, slog.LevelInfo, parseLogLevel(false))
	require.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv(LogLevelEnv, "WARN")
	require.Equal(t, slog.LevelWarn, parseLogLevel(false))
	require.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv(LogLevelEnv, "error")
	require.Equal(t, slog.LevelError, parseLogLevel(false))
}

func TestCLI_DefaultCommandIsBuild(t *testing.T) {
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{})
	require.NoError(t, err)
	require.Equal(t, "build", ctx.Command())

	ctx, err = parser.Parse([]string{"history", "build-1", "--limit", "3"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ctx.Command(), "history"))
	require.Equal(t, "build-1", cli.History.BuildID)
	require.Equal(t, 3, cli.History.Limit)

	_, err = parser.Parse([]string{"serve", "--watch", "--addr", "localhost:9000"})
	require.NoError(t, err)
	require.True(t, cli.Serve.Watch)
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitebundle.yaml")
	require.NoError(t, RunInit(path, false))
	_, err := os.Stat(path)
	require.NoError(t, err)

	err = RunInit(path, false)
	require.Error(t, err)
	require.NoError(t, RunInit(path, true))
}

func writeSite(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"script.js":        "function hello(name) {\n  console.log(name);\n  return 'hi ' + name;\n}\n",
		"preferences.js":   "function save(key, value) {\n  localStorage.setItem(key, value);\n}\n",
		"styles.css":       "body {\n  margin: 0;\n}\n",
		"index.html":       "<!DOCTYPE html>\n<html>\n  <body>\n    <a href=\"terms.html\">Terms</a>\n  </body>\n</html>\n",
		"preferences.html": "<!DOCTYPE html>\n<html>\n  <body>\n    <p>Preferences</p>\n  </body>\n</html>\n",
		"privacy.html":     "<!DOCTYPE html>\n<html>\n  <body>\n    <p>Privacy</p>\n  </body>\n</html>\n",
		"terms.html":       "<!DOCTYPE html>\n<html>\n  <body>\n    <p>Terms</p>\n  </body>\n</html>\n",
		"images/logo.png":  "png",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestRunBuild_WiresObservers(t *testing.T) {
	dir := t.TempDir()
	writeSite(t, filepath.Join(dir, "site"))

	cfg := config.Default()
	cfg.Source.Root = filepath.Join(dir, "site")
	cfg.Output.Directory = filepath.Join(dir, "dist")
	cfg.Report.Directory = filepath.Join(dir, "reports")
	cfg.Events.StorePath = filepath.Join(dir, "events.db")
	cfg.Metrics.Textfile = filepath.Join(dir, "sitebundle.prom")

	obs := newObservers(cfg)
	result, err := RunBuild(context.Background(), cfg, obs)
	obs.Close()
	require.NoError(t, err)
	require.True(t, result.Status.IsSuccess())

	_, err = os.Stat(filepath.Join(dir, "dist", "images", "logo.png"))
	require.NoError(t, err)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	require.Contains(t, string(prom), "sitebundle_build_outcomes_total")

	rep, err := report.Load(afero.NewOsFs(), cfg.Report.Directory)
	require.NoError(t, err)
	require.Equal(t, result.BuildID, rep.BuildID)

	store, err := eventstore.NewSQLiteStore(cfg.Events.StorePath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var out bytes.Buffer
	require.NoError(t, (&HistoryCmd{Limit: 5}).print(context.Background(), &out, store))
	require.Contains(t, out.String(), result.BuildID)

	out.Reset()
	require.NoError(t, (&HistoryCmd{BuildID: result.BuildID}).print(context.Background(), &out, store))
	require.Contains(t, out.String(), "file_minified")
	require.Contains(t, out.String(), "build_completed")

	err = (&HistoryCmd{BuildID: "missing"}).print(context.Background(), &out, store)
	require.True(t, foundation.HasCategory(err, foundation.CategoryNotFound))
}

func TestIgnoredPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Events.StorePath = "events.db"
	cfg.Metrics.Textfile = "metrics.prom"
	paths := ignoredPaths(cfg)
	require.Contains(t, paths, cfg.Output.Directory)
	require.Contains(t, paths, cfg.Report.Directory)
	require.Contains(t, paths, "events.db-wal")
	require.Contains(t, paths, "metrics.prom")
}
