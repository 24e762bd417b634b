package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cppla/idportal/config"
	"github.com/cppla/idportal/metrics"
	"github.com/cppla/idportal/utils"
)

// ObjectStore is the object storage used for application documents. Keys are opaque.
type ObjectStore interface {
	// SignedURL returns a time-limited GET link, or "" when the key is empty or signing fails.
	SignedURL(ctx context.Context, key string, ttl time.Duration) string
	// PresignGet is SignedURL with the failure reported to the caller.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes key. Failures are logged and returned; an empty key is a no-op.
	Delete(ctx context.Context, key string) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// ErrEmptyKey is returned by PresignGet for an empty key.
var ErrEmptyKey = errors.New("empty object key")

// S3Store implements ObjectStore on a single S3 (or S3 compatible) bucket.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

var _ ObjectStore = (*S3Store)(nil)

// NewS3Store builds the client from explicit configuration. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain applies.
// A non-empty S3Endpoint switches to path-style addressing for S3 compatible stores.
func NewS3Store(ctx context.Context, cfg config.AppConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.S3Bucket,
	}, nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) string {
	if key == "" {
		return ""
	}
	url, err := s.PresignGet(ctx, key, ttl)
	if err != nil {
		utils.Sugar.Warnw("sign object url failed", "key", key, "error", err)
		metrics.RecordStorageFailure("sign")
		return ""
	}
	return url
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		utils.Sugar.Warnw("delete object failed", "key", key, "error", err)
		metrics.RecordStorageFailure("delete")
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
