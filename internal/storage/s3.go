// Package storage downloads uploaded resumes from S3 compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jonathan/resume-screener/internal/config"
)

// DefaultAttempts is how often a download is tried before giving up.
const DefaultAttempts = 3

// Permanent download failures; neither is retried.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectTooLarge = errors.New("object too large")
)

// ObjectGetter is the part of the S3 client the downloader uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Downloader fetches objects from one bucket.
type Downloader struct {
	client   ObjectGetter
	bucket   string
	attempts int
	backoff  time.Duration
	maxSize  int64
}

// NewDownloader wraps client. maxSize of 0 means no limit.
func NewDownloader(client ObjectGetter, bucket string, maxSize int64) *Downloader {
	return &Downloader{
		client:   client,
		bucket:   bucket,
		attempts: DefaultAttempts,
		backoff:  500 * time.Millisecond,
		maxSize:  maxSize,
	}
}

// NewS3Downloader builds an S3 client from cfg. A custom S3Endpoint points the
// client at an S3 compatible store such as R2 or MinIO.
func NewS3Downloader(ctx context.Context, cfg config.Config) (*Downloader, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("s3 bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewDownloader(client, cfg.S3Bucket, cfg.MaxFileSizeBytes()), nil
}

// Bucket returns the bucket objects are read from.
func (d *Downloader) Bucket() string {
	return d.bucket
}

// Download returns the object body, retrying transient failures with a
// linear backoff.
func (d *Downloader) Download(ctx context.Context, key string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		data, err := d.get(ctx, key)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrObjectTooLarge) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		log.Printf("storage=download status=retry key=%s attempt=%d err=%v", key, attempt, err)

		if attempt == d.attempts {
			break
		}
		select {
		case <-time.After(d.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("failed to download %s after %d attempts: %w", key, d.attempts, lastErr)
}

func (d *Downloader) get(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	var body io.Reader = out.Body
	if d.maxSize > 0 {
		body = io.LimitReader(out.Body, d.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if d.maxSize > 0 && int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrObjectTooLarge, key, d.maxSize)
	}
	return data, nil
}
