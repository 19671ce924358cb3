// Package report persists a summary of each build next to (never inside) the output
// tree. The last report also gates publishing: only a successful build is uploaded.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

const (
	// SchemaVersion is bumped when the JSON layout changes incompatibly.
	SchemaVersion = 1

	JSONFile = "build_report.json"
	TextFile = "build_report.txt"
)

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// FileReport describes one minified source.
type FileReport struct {
	Category string        `json:"category"`
	Path     string        `json:"path"`
	BytesIn  int64         `json:"bytes_in"`
	BytesOut int64         `json:"bytes_out"`
	Duration time.Duration `json:"duration_ns"`
}

// BuildReport captures what a build did and how it ended.
type BuildReport struct {
	SchemaVersion  int                      `json:"schema_version"`
	BuildID        string                   `json:"build_id"`
	Version        string                   `json:"version"`
	Revision       string                   `json:"revision,omitempty"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Outcome        Outcome                  `json:"outcome"`
	Files          []FileReport             `json:"files"`
	Assets         int                      `json:"assets"`
	AssetBytes     int64                    `json:"asset_bytes"`
	Static         []string                 `json:"static,omitempty"`
	LinkIssues     []string                 `json:"link_issues,omitempty"`
	Precompressed  int                      `json:"precompressed"`
	StageDurations map[string]time.Duration `json:"stage_durations_ns"`
	Error          string                   `json:"error,omitempty"`
	ErrorCategory  string                   `json:"error_category,omitempty"`
}

// New starts a report for buildID.
func New(buildID, version string) *BuildReport {
	return &BuildReport{
		SchemaVersion:  SchemaVersion,
		BuildID:        buildID,
		Version:        version,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// Finish stamps the end time and derives the outcome from err.
func (r *BuildReport) Finish(err error) {
	r.End = time.Now()
	if err == nil {
		r.Outcome = OutcomeSuccess
		return
	}
	r.Outcome = OutcomeFailed
	r.Error = err.Error()
	r.ErrorCategory = string(foundation.GetCategory(err))
}

// Succeeded reports whether the build completed without error.
func (r *BuildReport) Succeeded() bool { return r.Outcome == OutcomeSuccess }

// BytesIn sums the source sizes of all minified files.
func (r *BuildReport) BytesIn() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.BytesIn
	}
	return n
}

// BytesOut sums the minified sizes.
func (r *BuildReport) BytesOut() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.BytesOut
	}
	return n
}

// Summary returns a human-readable multi-line summary.
func (r *BuildReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build %s: %s in %s\n", r.BuildID, r.Outcome, r.End.Sub(r.Start).Truncate(time.Millisecond))
	if r.Revision != "" {
		fmt.Fprintf(&b, "revision: %s\n", r.Revision)
	}
	fmt.Fprintf(&b, "minified: %d files, %s -> %s\n", len(r.Files),
		humanize.Bytes(uint64(r.BytesIn())), humanize.Bytes(uint64(r.BytesOut())))
	for _, f := range r.Files {
		fmt.Fprintf(&b, "  %-10s %-24s %8s -> %8s\n", f.Category, f.Path,
			humanize.Bytes(uint64(f.BytesIn)), humanize.Bytes(uint64(f.BytesOut)))
	}
	fmt.Fprintf(&b, "assets: %d files, %s\n", r.Assets, humanize.Bytes(uint64(r.AssetBytes)))
	if len(r.Static) > 0 {
		fmt.Fprintf(&b, "static: %s\n", strings.Join(r.Static, ", "))
	}
	if r.Precompressed > 0 {
		fmt.Fprintf(&b, "precompressed: %d files\n", r.Precompressed)
	}
	for _, issue := range r.LinkIssues {
		fmt.Fprintf(&b, "broken link: %s\n", issue)
	}

	stages := make([]string, 0, len(r.StageDurations))
	for s := range r.StageDurations {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	for _, s := range stages {
		fmt.Fprintf(&b, "stage %s: %s\n", s, r.StageDurations[s].Truncate(time.Microsecond))
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "error (%s): %s\n", r.ErrorCategory, r.Error)
	}
	return b.String()
}

// Persist writes build_report.json and build_report.txt into dir, replacing each
// through a temporary file.
func (r *BuildReport) Persist(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(fs, filepath.Join(dir, JSONFile), jb); err != nil {
		return err
	}
	return writeAtomic(fs, filepath.Join(dir, TextFile), []byte(r.Summary()))
}

func writeAtomic(fs afero.Fs, path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load reads the JSON report from dir.
func Load(fs afero.Fs, dir string) (*BuildReport, error) {
	path := filepath.Join(dir, JSONFile)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, foundation.NotFoundError("no build report found; run a build first").
				WithCause(err).WithContext("path", path).Build()
		}
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to read build report").
			WithContext("path", path).Fatal().Build()
	}
	var r BuildReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryValidation, "corrupt build report").
			WithContext("path", path).Fatal().Build()
	}
	return &r, nil
}
