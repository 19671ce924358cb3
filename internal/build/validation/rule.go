// Package validation holds the pre-flight checks a build runs before it writes
// anything to the output directory.
package validation

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebundle/internal/manifest"
)

// Context contains all the data needed by validation rules.
type Context struct {
	Fs         afero.Fs
	SourceRoot string
	Sources    manifest.SourceSet
	OutputDir  string
	Logger     *slog.Logger
}

// Result indicates whether validation passed. Err carries the classified error
// the build fails with.
type Result struct {
	Passed bool
	Err    error
}

// Success returns a successful validation result.
func Success() Result {
	return Result{Passed: true}
}

// Failure returns a failed validation result.
func Failure(err error) Result {
	return Result{Passed: false, Err: err}
}

// Rule is a single pre-flight check.
type Rule interface {
	// Name returns a short identifier for this rule (for logging/debugging).
	Name() string

	Validate(ctx context.Context, vctx Context) Result
}

// RuleChain executes validation rules in sequence, stopping at the first failure.
type RuleChain struct {
	rules []Rule
}

// NewRuleChain creates a new rule chain with the given rules.
func NewRuleChain(rules ...Rule) *RuleChain {
	return &RuleChain{rules: rules}
}

// Preflight is the standard chain run before every build.
func Preflight() *RuleChain {
	return NewRuleChain(SourceSetRule{}, OutputLocationRule{}, SourcesExistRule{})
}

// Validate executes all rules in order, returning the first failure or success if all pass.
func (rc *RuleChain) Validate(ctx context.Context, vctx Context) Result {
	for _, rule := range rc.rules {
		result := rule.Validate(ctx, vctx)
		if !result.Passed {
			if vctx.Logger != nil {
				vctx.Logger.Debug("Pre-flight check failed", "rule", rule.Name(), "error", result.Err)
			}
			return result
		}
	}
	return Success()
}
