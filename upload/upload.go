// Package upload publishes report files to an S3-compatible bucket.
package upload

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	cerrors "github.com/codesentry/codesentry/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type Store struct {
	logger zerolog.Logger
	client *minio.Client
	bucket string
	region string
}

// New connects to the endpoint and creates the bucket if it is missing.
func New(ctx context.Context, logger zerolog.Logger, opts Options) (*Store, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, cerrors.New(cerrors.ErrCodeUpload, "upload endpoint and bucket are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUpload, "failed to create storage client", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUpload,
			fmt.Sprintf("failed to check bucket %s", opts.Bucket), err)
	}
	if !exists {
		logger.Debug().Str("bucket", opts.Bucket).Msg("Creating bucket")
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeUpload,
				fmt.Sprintf("failed to create bucket %s", opts.Bucket), err)
		}
	}

	return &Store{logger: logger, client: client, bucket: opts.Bucket, region: opts.Region}, nil
}

// Upload stores the local file under key and returns the object URL.
func (s *Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	info, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: ContentType(localPath),
	})
	if err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeUpload, fmt.Sprintf("failed to upload %s", localPath), err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("key", key).
		Int64("size", info.Size).
		Msg("Uploaded report")

	u := *s.client.EndpointURL()
	u.Path = path.Join("/", s.bucket, key)
	return u.String(), nil
}

// Publish uploads every file under <prefix>/<runID>/ and returns the URLs in
// the order of files. It stops at the first failure.
func (s *Store) Publish(ctx context.Context, prefix, runID string, files ...string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Upload(ctx, f, ObjectKey(prefix, runID, filepath.Base(f)))
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// ObjectKey joins prefix, run ID and file name with forward slashes,
// ignoring stray separators in prefix.
func ObjectKey(prefix, runID, name string) string {
	var parts []string
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, runID, name)
	return strings.Join(parts, "/")
}

// ContentType guesses the MIME type of a report file from its extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".prom", ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
