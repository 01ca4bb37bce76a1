package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/timmy/ghostline/internal/config"
)

// Provider identifies the flavour of S3-compatible service behind an endpoint.
type Provider string

const (
	ProviderR2           Provider = "r2"
	ProviderS3           Provider = "s3"
	ProviderS3Compatible Provider = "s3compatible"
)

// ImageStore keeps generated product images in an S3-compatible bucket.
type ImageStore struct {
	client    *s3.Client
	bucket    string
	endpoint  string
	scheme    string
	provider  Provider
	publicURL string
}

// New builds an ImageStore from the storage section of the config.
func New(ctx context.Context, cfg config.StorageConfig) (*ImageStore, error) {
	if !cfg.Enabled() {
		return nil, errors.New("storage bucket is not configured")
	}

	endpoint := normalizeEndpoint(cfg.Endpoint)
	provider := DetectProvider(endpoint)

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
		if provider == ProviderR2 {
			region = "auto"
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(fmt.Sprintf("%s://%s", scheme, endpoint))
			o.UsePathStyle = true
		}
	})

	return &ImageStore{
		client:    client,
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		scheme:    scheme,
		provider:  provider,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// DetectProvider guesses the service from the endpoint host.
func DetectProvider(endpoint string) Provider {
	endpoint = strings.ToLower(endpoint)
	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return ProviderR2
	case endpoint == "" || strings.Contains(endpoint, "amazonaws.com"):
		return ProviderS3
	default:
		return ProviderS3Compatible
	}
}

// normalizeEndpoint strips the scheme and any path from endpoint.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}
	return endpoint
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	// R2 buckets are created from the dashboard only.
	if s.provider == ProviderR2 {
		return fmt.Errorf("bucket %s does not exist, create it in the R2 dashboard", s.bucket)
	}

	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload stores an object. Non-seekable readers are buffered so the SDK can
// sign the payload over plain HTTP endpoints.
func (s *ImageStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	body, ok := reader.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to buffer object: %w", err)
		}
		body = bytes.NewReader(data)
		size = int64(len(data))
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// GetURL returns the public URL of key. Without a configured public URL the
// path-style endpoint URL is used.
func (s *ImageStore) GetURL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	}
	if s.endpoint == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("%s://%s/%s/%s", s.scheme, s.endpoint, s.bucket, key)
}
