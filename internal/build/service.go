package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebundle/internal/assets"
	"git.home.luguber.info/inful/sitebundle/internal/config"
	"git.home.luguber.info/inful/sitebundle/internal/linkverify"
	"git.home.luguber.info/inful/sitebundle/internal/minify"
	"git.home.luguber.info/inful/sitebundle/internal/precompress"
	"git.home.luguber.info/inful/sitebundle/internal/report"
)

// BuildService is the canonical interface for executing site builds.
type BuildService interface {
	// Run executes the complete pipeline for one build. The result is returned even
	// when err is non-nil and describes what was done before the failure.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// BuildID identifies the build in logs, events and the report. Generated when empty.
	BuildID string
}

// FileResult is the outcome of one minify task.
type FileResult struct {
	minify.Result
	Duration time.Duration
	Err      error
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	BuildID string
	Status  BuildStatus

	// Files holds one slot per source in source-set order. Slots of tasks that
	// failed carry Err.
	Files         []FileResult
	Assets        assets.Result
	Static        []assets.Copied
	LinkIssues    []linkverify.Issue
	Precompressed []precompress.File

	Report *report.BuildReport

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusFailed  BuildStatus = "failed"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

// Stage names, in execution order.
const (
	StageValidate    = "validate"
	StagePrepare     = "prepare"
	StageMinify      = "minify"
	StageAssets      = "assets"
	StageStatic      = "static"
	StageLinkCheck   = "linkcheck"
	StagePrecompress = "precompress"
)
