package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"isolationd/pkg/platform/sentinel"
)

// Fetcher retrieves the raw policy document from its source of truth.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FileFetcher reads the policy from a local file.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read policy file %s: %w", f.Path, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read policy file %s: %w", f.Path, err)
	}
	return raw, nil
}

// S3Config locates the policy object in an S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string // optional; set for MinIO or local stacks
	PathStyle bool
}

// S3Fetcher reads the policy document from a single S3 object.
type S3Fetcher struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Fetcher builds a fetcher on the default AWS credentials chain.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "eu-west-2"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3FetcherFromClient(client, cfg.Bucket, cfg.Key), nil
}

// NewS3FetcherFromClient wraps an existing client.
func NewS3FetcherFromClient(client *s3.Client, bucket, key string) *S3Fetcher {
	return &S3Fetcher{client: client, bucket: bucket, key: key}
}

func (f *S3Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &f.bucket, Key: &f.key})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("policy object s3://%s/%s: %w", f.bucket, f.key, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get policy object: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer func() { _ = out.Body.Close() }()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read policy object: %w", err)
	}
	return raw, nil
}
