package publish

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"git.home.luguber.info/inful/sitebundle/internal/config"
	ferrors "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

// PutOptions carries per-object headers.
type PutOptions struct {
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// ObjectStore is the upload target.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, opts PutOptions) error
}

// MinioStore is an ObjectStore backed by an S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore connects to the endpoint named in cfg.
func NewMinioStore(cfg config.PublishConfig) (*MinioStore, error) {
	if err := config.ValidatePublish(cfg); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to create object store client").
			WithContext("endpoint", cfg.Endpoint).Build()
	}
	return &MinioStore{client: client}, nil
}

func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.client.BucketExists(ctx, bucket)
}

func (s *MinioStore) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, opts PutOptions) error {
	_, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		UserMetadata: opts.Metadata,
	})
	return err
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
