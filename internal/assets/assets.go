// Package assets copies static files into the output tree unchanged.
package assets

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
)

// Copied is one file written by the copier.
type Copied struct {
	Name  string
	Bytes int64
}

// Result summarizes a directory copy.
type Result struct {
	Files   []Copied
	Skipped []string // subdirectories, not descended into
}

// Bytes returns the total size of the copied files.
func (r Result) Bytes() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Bytes
	}
	return total
}

// CopyDir copies every regular file directly inside srcDir to dstDir. The first
// failing copy aborts the operation; files already copied are left in place.
func CopyDir(fs afero.Fs, srcDir, dstDir string) (Result, error) {
	var res Result

	entries, err := afero.ReadDir(fs, srcDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, foundation.NotFoundError("assets directory not found").
				WithCause(err).WithContext("path", srcDir).Build()
		}
		return res, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to list assets directory").
			WithContext("path", srcDir).Fatal().Build()
	}

	for _, entry := range entries {
		if entry.IsDir() {
			slog.Warn("Skipping subdirectory in assets", logfields.Path(filepath.Join(srcDir, entry.Name())))
			res.Skipped = append(res.Skipped, entry.Name())
			continue
		}
		n, err := copyFile(fs, filepath.Join(srcDir, entry.Name()), filepath.Join(dstDir, entry.Name()), entry.Mode().Perm())
		if err != nil {
			return res, err
		}
		res.Files = append(res.Files, Copied{Name: entry.Name(), Bytes: n})
	}
	return res, nil
}

// CopyOptional copies each named file from srcRoot to dstRoot when it exists.
// Missing files are not an error.
func CopyOptional(fs afero.Fs, srcRoot, dstRoot string, names []string) ([]Copied, error) {
	var copied []Copied
	for _, name := range names {
		src := filepath.Join(srcRoot, name)
		info, err := fs.Stat(src)
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Optional static file absent", logfields.Path(src))
			continue
		}
		if err != nil {
			return copied, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to stat static file").
				WithContext("path", src).Fatal().Build()
		}
		if info.IsDir() {
			slog.Warn("Static entry is a directory, skipping", logfields.Path(src))
			continue
		}
		n, err := copyFile(fs, src, filepath.Join(dstRoot, name), info.Mode().Perm())
		if err != nil {
			return copied, err
		}
		copied = append(copied, Copied{Name: name, Bytes: n})
	}
	return copied, nil
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to open asset").
			WithContext("path", src).Fatal().Build()
	}
	defer func() { _ = in.Close() }()

	if perm == 0 {
		perm = 0o644
	}
	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to create asset copy").
			WithContext("path", dst).Fatal().Build()
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to copy asset").
			WithContext("path", dst).Fatal().Build()
	}
	return n, nil
}
