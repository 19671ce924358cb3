// Package publish uploads a built output tree to an S3-compatible bucket.
//
// Publishing is gated on the last build report: a tree whose build failed may hold
// partial output and is never uploaded.
package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebundle/internal/config"
	ferrors "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/logfields"
	"git.home.luguber.info/inful/sitebundle/internal/report"
	"git.home.luguber.info/inful/sitebundle/internal/retry"
)

// ChecksumKey is the user metadata key holding an object's SHA-256.
const ChecksumKey = "sha256"

const defaultWorkers = 4

// Object is one uploaded file.
type Object struct {
	Key    string
	Size   int64
	SHA256 string
}

// Result lists the uploaded objects sorted by key.
type Result struct {
	BuildID string
	Objects []Object
}

// Bytes returns the total uploaded size.
func (r Result) Bytes() int64 {
	var n int64
	for _, o := range r.Objects {
		n += o.Size
	}
	return n
}

// Request describes one publish run.
type Request struct {
	OutputDir string
	ReportDir string
	Target    config.PublishConfig
	DryRun    bool
}

// Publisher uploads output trees.
type Publisher struct {
	fs    afero.Fs
	store ObjectStore
	retry retry.Policy
}

// New returns a Publisher reading from fs and uploading to store. Uploads are not
// retried until WithRetry is set.
func New(fs afero.Fs, store ObjectStore) *Publisher {
	return &Publisher{fs: fs, store: store, retry: retry.Policy{MaxRetries: 0}}
}

// WithRetry sets the backoff policy for failed uploads.
func (p *Publisher) WithRetry(policy retry.Policy) *Publisher {
	p.retry = policy
	return p
}

// Publish checks the last build report and uploads every file under the output
// directory. Precompressed siblings are skipped; object stores do not negotiate
// encodings.
func (p *Publisher) Publish(ctx context.Context, req Request) (Result, error) {
	rep, err := report.Load(p.fs, req.ReportDir)
	if err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryNotFound) {
			return Result{}, ferrors.ValidationError("no build report found; run a build before publishing").
				WithContext("report_dir", req.ReportDir).Build()
		}
		return Result{}, err
	}
	if !rep.Succeeded() {
		return Result{}, ferrors.ValidationError("last build failed; refusing to publish partial output").
			WithContext("build_id", rep.BuildID).
			WithContext("error", rep.Error).Build()
	}

	files, err := p.collect(req.OutputDir)
	if err != nil {
		return Result{}, err
	}
	result := Result{BuildID: rep.BuildID}

	if req.DryRun {
		for _, f := range files {
			result.Objects = append(result.Objects, Object{Key: objectKey(req.Target.Prefix, f.rel), Size: f.size})
		}
		return result, nil
	}

	exists, err := p.store.BucketExists(ctx, req.Target.Bucket)
	if err != nil {
		return result, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to check bucket").
			WithContext("bucket", req.Target.Bucket).Build()
	}
	if !exists {
		return result, ferrors.NotFoundError("bucket does not exist").
			WithContext("bucket", req.Target.Bucket).Build()
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultWorkers)
	for _, f := range files {
		g.Go(func() error {
			obj, err := p.upload(gctx, req.Target, f)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Objects = append(result.Objects, obj)
			mu.Unlock()
			slog.Debug("Uploaded object", logfields.Bucket(req.Target.Bucket), logfields.Path(obj.Key))
			return nil
		})
	}
	err = g.Wait()
	sort.Slice(result.Objects, func(i, j int) bool { return result.Objects[i].Key < result.Objects[j].Key })
	if err != nil {
		return result, err
	}

	slog.Info("Published site",
		logfields.Bucket(req.Target.Bucket),
		logfields.BuildID(rep.BuildID),
		logfields.Count(len(result.Objects)),
		slog.String("size", humanize.Bytes(uint64(result.Bytes()))))
	return result, nil
}

type localFile struct {
	abs  string
	rel  string // slash separated, relative to the output dir
	size int64
}

func (p *Publisher) collect(root string) ([]localFile, error) {
	if ok, err := afero.DirExists(p.fs, root); err != nil || !ok {
		return nil, ferrors.NotFoundError("output directory not found").WithContext("path", root).Build()
	}
	var files []localFile
	err := afero.Walk(p.fs, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(name, ".gz") || strings.HasSuffix(name, ".br") {
			return nil
		}
		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}
		files = append(files, localFile{abs: name, rel: filepath.ToSlash(rel), size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk output directory").
			WithContext("path", root).Build()
	}
	return files, nil
}

func (p *Publisher) upload(ctx context.Context, target config.PublishConfig, f localFile) (Object, error) {
	data, err := afero.ReadFile(p.fs, f.abs)
	if err != nil {
		return Object{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read file for upload").
			WithContext("path", f.abs).Build()
	}
	sum := sha256.Sum256(data)
	obj := Object{Key: objectKey(target.Prefix, f.rel), Size: int64(len(data)), SHA256: hex.EncodeToString(sum[:])}

	opts := PutOptions{
		ContentType:  contentType(f.rel),
		CacheControl: target.CacheControl,
		Metadata:     map[string]string{ChecksumKey: obj.SHA256},
	}
	err = p.retry.Do(ctx, "upload "+obj.Key, func() error {
		if err := p.store.Put(ctx, target.Bucket, obj.Key, bytes.NewReader(data), obj.Size, opts); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to upload object").
				WithContext("bucket", target.Bucket).
				WithContext("key", obj.Key).Build()
		}
		return nil
	})
	return obj, err
}

func objectKey(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
