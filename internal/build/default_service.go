package build

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebundle/internal/assets"
	"git.home.luguber.info/inful/sitebundle/internal/build/validation"
	"git.home.luguber.info/inful/sitebundle/internal/config"
	"git.home.luguber.info/inful/sitebundle/internal/events"
	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/linkverify"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
	"git.home.luguber.info/inful/sitebundle/internal/manifest"
	"git.home.luguber.info/inful/sitebundle/internal/metrics"
	"git.home.luguber.info/inful/sitebundle/internal/minify"
	"git.home.luguber.info/inful/sitebundle/internal/observability"
	"git.home.luguber.info/inful/sitebundle/internal/precompress"
	"git.home.luguber.info/inful/sitebundle/internal/report"
	"git.home.luguber.info/inful/sitebundle/internal/version"
)

// ImagesDir is the output subdirectory assets are copied into.
const ImagesDir = "images"

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	fs       afero.Fs
	recorder metrics.Recorder
	sink     events.Sink
	revision func(dir string) string
}

// NewBuildService creates a new DefaultBuildService on the OS file system that
// logs its events and records no metrics.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		fs:       afero.NewOsFs(),
		recorder: metrics.NoopRecorder{},
		sink:     events.LogSink{},
		revision: report.Revision,
	}
}

// WithFs sets the file system sources are read from and output is written to.
func (s *DefaultBuildService) WithFs(fs afero.Fs) *DefaultBuildService {
	s.fs = fs
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithSink sets the event sink.
func (s *DefaultBuildService) WithSink(sink events.Sink) *DefaultBuildService {
	s.sink = sink
	return s
}

// WithRevisionFunc overrides how the source revision is looked up.
func (s *DefaultBuildService) WithRevisionFunc(fn func(dir string) string) *DefaultBuildService {
	s.revision = fn
	return s
}

// run is the state of one build.
type run struct {
	svc    *DefaultBuildService
	cfg    *config.Config
	result *BuildResult
	rep    *report.BuildReport
	warned map[string]bool // stages that completed with warnings
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := time.Now()
	buildID := req.BuildID
	if buildID == "" {
		buildID = uuid.NewString()
	}

	result := &BuildResult{BuildID: buildID, StartTime: startTime}
	if req.Config == nil {
		result.Status = BuildStatusFailed
		return result, foundation.ConfigError("config required").Build()
	}

	ctx = observability.WithBuildID(ctx, buildID)
	r := &run{
		svc:    s,
		cfg:    req.Config,
		result: result,
		rep:    report.New(buildID, version.Version),
		warned: make(map[string]bool),
	}
	if s.revision != nil {
		r.rep.Revision = s.revision(req.Config.Source.Root)
	}

	r.emit(ctx, events.Event{Type: events.BuildStarted, Count: req.Config.Source.Files.Len()})

	err := r.stages(ctx)
	r.finish(ctx, err)
	return result, err
}

func (r *run) stages(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
		skip bool
	}{
		{StageValidate, r.validate, false},
		{StagePrepare, r.prepare, false},
		{StageMinify, r.minify, false},
		{StageAssets, r.copyAssets, false},
		{StageStatic, r.copyStatic, len(r.cfg.Assets.Static) == 0},
		{StageLinkCheck, r.checkLinks, r.cfg.LinkCheck.Mode == config.LinkCheckOff || len(r.cfg.Source.Files.Markup) == 0},
		{StagePrecompress, r.precompress, !r.cfg.Precompress.Enabled()},
	}
	for _, step := range steps {
		if step.skip {
			r.svc.recorder.IncStageResult(step.name, metrics.ResultSkipped)
			continue
		}
		if err := r.stage(ctx, step.name, step.fn); err != nil {
			return err
		}
	}
	return nil
}

// stage times fn and records its result.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	observability.DebugContext(ctx, "Stage started")

	err := fn(ctx)

	d := time.Since(start)
	r.rep.StageDurations[name] = d
	r.svc.recorder.ObserveStageDuration(name, d)
	if err != nil {
		r.svc.recorder.IncStageResult(name, metrics.ResultFatal)
		observability.DebugContext(ctx, "Stage failed", logfields.DurationMS(float64(d.Milliseconds())), logfields.Error(err))
		return err
	}
	result := metrics.ResultSuccess
	if r.warned[name] {
		result = metrics.ResultWarning
	}
	r.svc.recorder.IncStageResult(name, result)
	observability.DebugContext(ctx, "Stage completed", logfields.DurationMS(float64(d.Milliseconds())))
	return nil
}

func (r *run) emit(ctx context.Context, e events.Event) {
	e.BuildID = r.result.BuildID
	if e.Stage == "" {
		e.Stage = observability.GetContext(ctx).Stage
	}
	events.Emit(ctx, r.svc.sink, e)
}

func (r *run) validate(ctx context.Context) error {
	res := validation.Preflight().Validate(ctx, validation.Context{
		Fs:         r.svc.fs,
		SourceRoot: r.cfg.Source.Root,
		Sources:    r.cfg.Source.Files,
		OutputDir:  r.cfg.Output.Directory,
		Logger:     slog.Default(),
	})
	if !res.Passed {
		return res.Err
	}
	return nil
}

func (r *run) prepare(_ context.Context) error {
	for _, dir := range []string{r.cfg.Output.Directory, filepath.Join(r.cfg.Output.Directory, ImagesDir)} {
		if err := r.svc.fs.MkdirAll(dir, 0o755); err != nil {
			return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to create output directory").
				WithContext("path", dir).Fatal().Build()
		}
	}
	return nil
}

// minify launches one task per source and waits for all of them. Each task owns
// its slot in r.result.Files.
func (r *run) minify(ctx context.Context) error {
	entries := r.cfg.Source.Files.Entries()
	r.result.Files = make([]FileResult, len(entries))

	var g errgroup.Group
	if n := r.cfg.Build.Concurrency; n > 0 {
		g.SetLimit(n)
	}
	for i, entry := range entries {
		g.Go(func() error {
			return r.minifyOne(observability.WithFile(ctx, entry.Path), i, entry)
		})
	}
	return g.Wait()
}

func (r *run) minifyOne(ctx context.Context, slot int, entry manifest.Entry) error {
	start := time.Now()
	res, err := minify.File(r.svc.fs, entry, r.cfg.Source.Root, r.cfg.Output.Directory)
	r.result.Files[slot] = FileResult{Result: res, Duration: time.Since(start), Err: err}

	if err != nil {
		r.emit(ctx, events.Event{Type: events.FileFailed, Path: entry.Path, Category: string(entry.Category), Error: err.Error()})
		return err
	}
	r.svc.recorder.ObserveFile(string(entry.Category), int64(res.BytesIn), int64(res.BytesOut))
	r.emit(ctx, events.Event{
		Type:     events.FileMinified,
		Path:     entry.Path,
		Category: string(entry.Category),
		BytesIn:  int64(res.BytesIn),
		BytesOut: int64(res.BytesOut),
	})
	return nil
}

func (r *run) copyAssets(ctx context.Context) error {
	src := filepath.Join(r.cfg.Source.Root, r.cfg.Assets.Directory)
	res, err := assets.CopyDir(r.svc.fs, src, filepath.Join(r.cfg.Output.Directory, ImagesDir))
	r.result.Assets = res
	for _, f := range res.Files {
		r.svc.recorder.ObserveFile("asset", f.Bytes, f.Bytes)
	}
	if err != nil {
		return err
	}
	r.emit(ctx, events.Event{Type: events.AssetsCopied, Path: src, Count: len(res.Files), BytesIn: res.Bytes(), BytesOut: res.Bytes()})
	return nil
}

func (r *run) copyStatic(ctx context.Context) error {
	copied, err := assets.CopyOptional(r.svc.fs, r.cfg.Source.Root, r.cfg.Output.Directory, r.cfg.Assets.Static)
	r.result.Static = copied
	for _, c := range copied {
		r.svc.recorder.ObserveFile("static", c.Bytes, c.Bytes)
		r.emit(ctx, events.Event{Type: events.StaticCopied, Path: c.Name, BytesIn: c.Bytes, BytesOut: c.Bytes})
	}
	return err
}

func (r *run) checkLinks(ctx context.Context) error {
	issues, err := linkverify.Check(r.svc.fs, r.cfg.Output.Directory, r.cfg.Source.Files.Markup)
	if err != nil {
		return err
	}
	r.result.LinkIssues = issues
	for _, issue := range issues {
		r.emit(ctx, events.Event{Type: events.LinkBroken, Path: issue.Page, Message: issue.URL})
	}
	if len(issues) == 0 {
		return nil
	}
	if r.cfg.LinkCheck.Mode == config.LinkCheckStrict {
		return foundation.ValidationError("broken local links").
			WithContext("count", len(issues)).
			WithContext("first", issues[0].String()).Build()
	}
	r.warned[StageLinkCheck] = true
	return nil
}

func (r *run) precompress(ctx context.Context) error {
	files, err := precompress.Dir(r.svc.fs, r.cfg.Output.Directory, precompress.Options{
		Gzip:    r.cfg.Precompress.Gzip,
		Brotli:  r.cfg.Precompress.Brotli,
		MinSize: r.cfg.Precompress.MinSize,
	})
	r.result.Precompressed = files
	for _, f := range files {
		r.emit(ctx, events.Event{Type: events.FilePrecompressed, Path: f.Path, BytesIn: f.BytesIn, BytesOut: f.BytesOut})
	}
	return err
}

// finish completes the result and report and notifies observers.
func (r *run) finish(ctx context.Context, err error) {
	res := r.result
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	rep := r.rep
	for _, f := range res.Files {
		if f.Err != nil || f.Path == "" {
			continue
		}
		rep.Files = append(rep.Files, report.FileReport{
			Category: string(f.Category),
			Path:     f.Path,
			BytesIn:  int64(f.BytesIn),
			BytesOut: int64(f.BytesOut),
			Duration: f.Duration,
		})
	}
	rep.Assets = len(res.Assets.Files)
	rep.AssetBytes = res.Assets.Bytes()
	for _, c := range res.Static {
		rep.Static = append(rep.Static, c.Name)
	}
	for _, issue := range res.LinkIssues {
		rep.LinkIssues = append(rep.LinkIssues, issue.String())
	}
	rep.Precompressed = len(res.Precompressed)
	rep.Finish(err)
	res.Report = rep

	if err != nil {
		res.Status = BuildStatusFailed
		r.svc.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		r.emit(ctx, events.Event{Type: events.BuildFailed, Error: err.Error()})
	} else {
		res.Status = BuildStatusSuccess
		r.svc.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
		r.emit(ctx, events.Event{Type: events.BuildCompleted, Count: len(rep.Files)})
	}
	r.svc.recorder.ObserveBuildDuration(res.Duration)

	if !r.cfg.Report.Disabled {
		if perr := rep.Persist(r.svc.fs, r.cfg.Report.Directory); perr != nil {
			observability.WarnContext(ctx, "Failed to persist build report",
				logfields.Path(r.cfg.Report.Directory), logfields.Error(perr))
		}
	}
}
