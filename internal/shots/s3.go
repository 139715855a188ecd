package shots

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the configuration for creating an S3 sink.
type S3Config struct {
	// Endpoint is the S3 endpoint URL (e.g., "https://fly.storage.tigris.dev").
	// Leave empty to use default AWS S3.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// Prefix is prepended to every key, e.g. "runs/<run-id>".
	Prefix string
	// UsePathStyle enables path-style addressing (required for gofakes3).
	UsePathStyle bool
}

// S3Sink uploads screenshots to a bucket under Prefix/<name>.png.
type S3Sink struct {
	s3Client   *s3.Client
	bucketName string
	prefix     string
}

// NewS3Sink creates an S3 sink with the given configuration.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("shots: load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3SinkFromClient(s3Client, cfg.BucketName, cfg.Prefix), nil
}

// NewS3SinkFromClient creates a sink from an existing S3 client.
func NewS3SinkFromClient(s3Client *s3.Client, bucketName, prefix string) *S3Sink {
	return &S3Sink{
		s3Client:   s3Client,
		bucketName: bucketName,
		prefix:     prefix,
	}
}

// Key returns the object key a screenshot name is stored under.
func (s *S3Sink) Key(name string) string {
	return path.Join(s.prefix, SafeName(name)+".png")
}

// Save uploads png as image/png.
func (s *S3Sink) Save(ctx context.Context, name string, png []byte) error {
	key := s.Key(name)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("shots: put object %q: %w", key, err)
	}
	return nil
}
