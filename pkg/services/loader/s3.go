package loader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// NewS3Client returns a factory for an S3 client built from the default
// AWS credential chain.
func NewS3Client(region string) S3ClientFactory {
	return func(ctx context.Context) (S3API, error) {
		var opts []func(*awsconfig.LoadOptions) error
		if region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return s3.NewFromConfig(cfg), nil
	}
}

type s3Source struct {
	client S3API
	bucket string
	key    string
}

func NewS3Source(client S3API, bucket, key string) Source {
	return &s3Source{client: client, bucket: bucket, key: key}
}

func (s *s3Source) Name() string {
	return s3Scheme + s.bucket + "/" + s.key
}

func (s *s3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return out.Body, nil
}

func (s *s3Source) Fingerprint(ctx context.Context) (string, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return "", fmt.Errorf("head object: %w", err)
	}
	var modified int64
	if out.LastModified != nil {
		modified = out.LastModified.UnixNano()
	}
	return fmt.Sprintf("s3:%s:%s:%d", s.Name(), aws.ToString(out.ETag), modified), nil
}

func parseS3URI(uri string) (string, string, error) {
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q, expected s3://bucket/key", uri)
	}
	return bucket, key, nil
}
