package commands

import (
	"log/slog"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebundle/internal/logfields"
	"git.home.luguber.info/inful/sitebundle/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr  string `help:"Listen address (overrides serve.addr)"`
	Watch bool   `help:"Rebuild in the background when sources change"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	addr := cfg.Serve.Addr
	if s.Addr != "" {
		addr = s.Addr
	}
	ctx, cancel := signalContext()
	defer cancel()

	obs := newObservers(cfg)
	defer obs.Close()

	fs := afero.NewOsFs()
	if ok, _ := afero.DirExists(fs, cfg.Output.Directory); !ok && !s.Watch {
		slog.Warn("Output directory does not exist yet; run a build first", logfields.Path(cfg.Output.Directory))
	}

	opts := preview.Options{Metrics: obs.recorder.Handler()}
	if !cfg.Report.Disabled {
		opts.ReportDir = cfg.Report.Directory
	}
	srv := preview.NewServer(addr, fs, cfg.Output.Directory, opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if s.Watch {
		g.Go(func() error { return watchAndRebuild(gctx, root.Config, cfg, obs) })
	}
	return g.Wait()
}
