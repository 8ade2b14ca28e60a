package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Source is a readable tabular input.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
	// Fingerprint changes whenever the content may have changed.
	Fingerprint(ctx context.Context) (string, error)
}

type fileSource struct {
	path string
}

func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (f *fileSource) Name() string {
	return f.path
}

func (f *fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

func (f *fileSource) Fingerprint(_ context.Context) (string, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", f.path)
	}
	return fmt.Sprintf("file:%s:%d:%d", f.path, info.Size(), info.ModTime().UnixNano()), nil
}

// S3ClientFactory builds the S3 client on first use so that deployments
// without s3:// datasets never touch AWS configuration.
type S3ClientFactory func(ctx context.Context) (S3API, error)

// Resolver turns dataset paths into sources.
type Resolver struct {
	newS3 S3ClientFactory

	once  sync.Once
	s3    S3API
	s3Err error
}

func NewResolver(newS3 S3ClientFactory) *Resolver {
	return &Resolver{newS3: newS3}
}

func (r *Resolver) Resolve(ctx context.Context, path string) (Source, error) {
	if !strings.HasPrefix(path, s3Scheme) {
		return NewFileSource(path), nil
	}

	bucket, key, err := parseS3URI(path)
	if err != nil {
		return nil, err
	}
	if r.newS3 == nil {
		return nil, fmt.Errorf("no S3 client configured for %s", path)
	}
	r.once.Do(func() {
		r.s3, r.s3Err = r.newS3(ctx)
	})
	if r.s3Err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", r.s3Err)
	}
	return NewS3Source(r.s3, bucket, key), nil
}
