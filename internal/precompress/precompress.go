// Package precompress writes .gz and .br siblings next to text files in the output
// tree so static hosts can serve them without compressing per request.
package precompress

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

// Extensions lists the file types worth compressing.
var Extensions = []string{".html", ".css", ".js", ".svg", ".json", ".txt", ".xml"}

// Options selects formats and the smallest file considered.
type Options struct {
	Gzip    bool
	Brotli  bool
	MinSize int
	Workers int // 0 means 4
}

// File describes one compressed sibling.
type File struct {
	Path     string // sibling path relative to the root, slash separated
	BytesIn  int64
	BytesOut int64
}

// Dir compresses every eligible file below root. Results are sorted by path.
func Dir(fs afero.Fs, root string, opts Options) ([]File, error) {
	if !opts.Gzip && !opts.Brotli {
		return nil, nil
	}

	var candidates []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Size() < int64(opts.MinSize) || !eligible(path) {
			return nil
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to walk output directory").
			WithContext("path", root).Fatal().Build()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	var (
		mu    sync.Mutex
		files []File
		g     errgroup.Group
	)
	g.SetLimit(workers)
	for _, path := range candidates {
		g.Go(func() error {
			written, err := compressFile(fs, root, path, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			files = append(files, written...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return files, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func eligible(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func compressFile(fs afero.Fs, root, path string, opts Options) ([]File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryFileSystem, "failed to read file for compression").
			WithContext("path", path).Fatal().Build()
	}

	var out []File
	write := func(suffix string, encode func([]byte) ([]byte, error)) error {
		encoded, err := encode(data)
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryInternal, "compression failed").
				WithContext("path", path).Build()
		}
		dst := path + suffix
		if err := afero.WriteFile(fs, dst, encoded, 0o644); err != nil {
			return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to write compressed file").
				WithContext("path", dst).Fatal().Build()
		}
		rel, err := filepath.Rel(root, dst)
		if err != nil {
			rel = dst
		}
		out = append(out, File{Path: filepath.ToSlash(rel), BytesIn: int64(len(data)), BytesOut: int64(len(encoded))})
		return nil
	}

	if opts.Gzip {
		if err := write(".gz", Gzip); err != nil {
			return out, err
		}
	}
	if opts.Brotli {
		if err := write(".br", Brotli); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Gzip compresses data at best compression with an empty header, so equal input
// gives equal output.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Brotli compresses data at the best quality.
func Brotli(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
