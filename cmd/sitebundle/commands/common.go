package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/sitebundle/internal/config"
	"git.home.luguber.info/inful/sitebundle/internal/events"
	"git.home.luguber.info/inful/sitebundle/internal/eventstore"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
	"git.home.luguber.info/inful/sitebundle/internal/metrics"
)

// LogLevelEnv overrides the log level when set (debug, info, warn, error).
const LogLevelEnv = "SITEBUNDLE_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitebundle.yaml" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build   BuildCmd   `cmd:"" default:"1" help:"Minify the site sources and copy assets into the output directory"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever a source file changes"`
	Serve   ServeCmd   `cmd:"" help:"Serve the output directory over HTTP"`
	Publish PublishCmd `cmd:"" help:"Upload the output directory to an S3-compatible bucket"`
	History HistoryCmd `cmd:"" help:"List recorded builds from the event store"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel resolves the level from the verbose flag and SITEBUNDLE_LOG_LEVEL.
// The flag wins.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads the configuration file, falling back to built-in defaults when the
// file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, found, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if found {
		slog.Debug("Loaded configuration", logfields.Path(path))
	} else {
		slog.Debug("No configuration file, using defaults", logfields.Path(path))
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// observers holds the event sinks and metrics recorder for a command.
type observers struct {
	sink     events.Multi
	recorder *metrics.PrometheusRecorder
}

// newObservers wires the sinks named in cfg. A sink that cannot be opened is
// logged and left out; observers never stop a build.
func newObservers(cfg *config.Config) *observers {
	o := &observers{
		sink:     events.Multi{events.LogSink{}},
		recorder: metrics.NewPrometheusRecorder(nil),
	}
	if path := cfg.Events.StorePath; path != "" {
		store, err := eventstore.NewSQLiteStore(path)
		if err != nil {
			slog.Warn("Event store unavailable", logfields.Path(path), logfields.Error(err))
		} else {
			o.sink = append(o.sink, events.NewStoreSink(store))
		}
	}
	if url := cfg.Events.NATS.URL; url != "" {
		natsSink, err := events.NewNATSSink(url, cfg.Events.NATS.Subject)
		if err != nil {
			slog.Warn("NATS event sink unavailable", logfields.URL(url), logfields.Error(err))
		} else {
			o.sink = append(o.sink, natsSink)
		}
	}
	return o
}

func (o *observers) Close() {
	if err := o.sink.Close(); err != nil {
		slog.Warn("Failed to close event sinks", logfields.Error(err))
	}
}
