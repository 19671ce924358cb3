package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebundle/internal/config"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
	"git.home.luguber.info/inful/sitebundle/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct{}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	obs := newObservers(cfg)
	defer obs.Close()
	return watchAndRebuild(ctx, root.Config, cfg, obs)
}

// watchAndRebuild runs an initial build, then rebuilds on every batch of source
// changes until ctx is cancelled. The configuration file is re-read before each
// rebuild; an invalid edit keeps the previous configuration.
func watchAndRebuild(ctx context.Context, configPath string, cfg *config.Config, obs *observers) error {
	if _, err := RunBuild(context.WithoutCancel(ctx), cfg, obs); err != nil {
		slog.Error("Initial build failed; waiting for changes", logfields.Error(err))
	}

	w, err := watch.New(cfg.Source.Root, ignoredPaths(cfg), watch.DefaultDebounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx, func(ctx context.Context, b watch.Batch) {
		if next, err := loadConfig(configPath); err != nil {
			slog.Warn("Keeping previous configuration", logfields.Error(err))
		} else {
			cfg = next
		}
		slog.Info("Rebuilding", logfields.Count(len(b.Paths)), logfields.File(b.Paths[0]))
		// A started build always runs to completion.
		if _, err := RunBuild(context.WithoutCancel(ctx), cfg, obs); err != nil {
			slog.Error("Rebuild failed", logfields.Error(err))
		}
	})
}

// ignoredPaths lists everything a build writes, so builds do not trigger themselves.
func ignoredPaths(cfg *config.Config) []string {
	paths := []string{cfg.Output.Directory, cfg.Report.Directory}
	if p := cfg.Events.StorePath; p != "" {
		paths = append(paths, p, p+"-journal", p+"-wal", p+"-shm")
	}
	if p := cfg.Metrics.Textfile; p != "" {
		paths = append(paths, p)
	}
	return paths
}
