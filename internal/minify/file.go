package minify

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/manifest"
)

// Result describes one minified file.
type Result struct {
	Category manifest.Category
	Path     string
	BytesIn  int
	BytesOut int
}

// Saved returns the number of bytes the transform removed.
func (r Result) Saved() int { return r.BytesIn - r.BytesOut }

// File reads entry from srcRoot, minifies it and writes the result to the same
// relative path under outRoot, creating parent directories as needed.
func File(fs afero.Fs, entry manifest.Entry, srcRoot, outRoot string) (Result, error) {
	res := Result{Category: entry.Category, Path: entry.Path}

	transform, err := For(entry.Category)
	if err != nil {
		return res, err
	}

	srcPath := filepath.Join(srcRoot, filepath.FromSlash(entry.Path))
	src, err := afero.ReadFile(fs, srcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, foundation.NotFoundError("source file not found").
				WithCause(err).WithContext("path", srcPath).Build()
		}
		return res, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to read source file").
			WithContext("path", srcPath).Fatal().Build()
	}
	res.BytesIn = len(src)

	out, err := transform(entry.Path, src)
	if err != nil {
		return res, err
	}
	res.BytesOut = len(out)

	dstPath := filepath.Join(outRoot, filepath.FromSlash(entry.Path))
	if err := fs.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return res, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(dstPath)).Fatal().Build()
	}
	if err := afero.WriteFile(fs, dstPath, out, 0o644); err != nil {
		return res, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to write minified file").
			WithContext("path", dstPath).Fatal().Build()
	}
	return res, nil
}
