package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebundle/internal/build"
	"git.home.luguber.info/inful/sitebundle/internal/config"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
)

// BuildCmd implements the 'build' command. It takes no parameters; everything it
// needs comes from the configuration file or the built-in defaults.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	obs := newObservers(cfg)
	defer obs.Close()

	_, err = RunBuild(context.Background(), cfg, obs)
	return err
}

// RunBuild executes one build and exports its metrics.
func RunBuild(ctx context.Context, cfg *config.Config, obs *observers) (*build.BuildResult, error) {
	svc := build.NewBuildService().
		WithRecorder(obs.recorder).
		WithSink(obs.sink)

	result, err := svc.Run(ctx, build.BuildRequest{Config: cfg})

	if path := cfg.Metrics.Textfile; path != "" {
		if werr := obs.recorder.WriteTextfile(path); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(werr))
		}
	}
	if result != nil && result.Report != nil {
		slog.Debug("Build summary", slog.String("summary", result.Report.Summary()))
	}
	return result, err
}
