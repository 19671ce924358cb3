package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

// SourceSetRule checks the structure of the source list.
type SourceSetRule struct{}

func (r SourceSetRule) Name() string { return "source_set" }

func (r SourceSetRule) Validate(_ context.Context, vctx Context) Result {
	if err := vctx.Sources.Validate(); err != nil {
		return Failure(foundation.WrapError(err, foundation.CategoryValidation, "invalid source list").Fatal().Build())
	}
	return Success()
}

// OutputLocationRule rejects an output directory that is, or contains, the source root.
type OutputLocationRule struct{}

func (r OutputLocationRule) Name() string { return "output_location" }

func (r OutputLocationRule) Validate(_ context.Context, vctx Context) Result {
	rel, err := filepath.Rel(filepath.Clean(vctx.OutputDir), filepath.Clean(vctx.SourceRoot))
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Failure(foundation.ValidationError("output directory must not contain the source root").
			WithContext("output", vctx.OutputDir).WithContext("source", vctx.SourceRoot).Build())
	}
	return Success()
}

// SourcesExistRule checks that every listed source is a regular file.
type SourcesExistRule struct{}

func (r SourcesExistRule) Name() string { return "sources_exist" }

func (r SourcesExistRule) Validate(_ context.Context, vctx Context) Result {
	for _, e := range vctx.Sources.Entries() {
		path := filepath.Join(vctx.SourceRoot, filepath.FromSlash(e.Path))
		info, err := vctx.Fs.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Failure(foundation.NotFoundError("source file not found").
					WithCause(err).WithContext("path", path).WithContext("category", string(e.Category)).Build())
			}
			return Failure(foundation.WrapError(err, foundation.CategoryFileSystem, "cannot stat source file").
				WithContext("path", path).Fatal().Build())
		}
		if info.IsDir() {
			return Failure(foundation.ValidationError("source path is a directory").
				WithContext("path", path).Build())
		}
	}
	return Success()
}
