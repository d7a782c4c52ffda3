// Package objectstore implements the content-addressed upload/download
// gateway (C1) over an S3-compatible backend, grounded on
// aditsachde-itko/internal/ctsubmit/storage.go's Storage interface and
// static-credential client construction.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eduflow/certflow/internal/config"
)

// Store is the object-store gateway the intake service and ingest worker
// depend on. Keys follow spec.md §6: certificates/{enrollment}/{sha256}.{ext}.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	PresignGET(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// S3Store is the sole production implementation, speaking to any
// S3-compatible endpoint (AWS S3, MinIO, LocalStack).
type S3Store struct {
	client         *s3.Client
	presignClient  *s3.PresignClient
	bucket         string
}

// New builds an S3Store from configuration, path-style addressing to
// support non-AWS S3-compatible endpoints, matching storage.go's
// NewS3Storage shape.
func New(cfg config.Config) *S3Store {
	awsCfg := aws.Config{
		Region:      cfg.ObjectStore.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.ObjectStore.AccessKeyID, cfg.ObjectStore.SecretAccessKey, ""),
	}
	if cfg.ObjectStore.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.ObjectStore.Endpoint)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	externalEndpoint := cfg.ObjectStore.ExternalEndpoint
	if externalEndpoint == "" {
		externalEndpoint = cfg.ObjectStore.Endpoint
	}
	presignCfg := awsCfg
	if externalEndpoint != "" {
		presignCfg.BaseEndpoint = aws.String(externalEndpoint)
	}
	presignClient := s3.NewPresignClient(s3.NewFromConfig(presignCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}))

	return &S3Store{client: client, presignClient: presignClient, bucket: cfg.ObjectStore.Bucket}
}

func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("uploading object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) && respErr.ResponseError.HTTPStatusCode() == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("checking object %s: %w", key, err)
	}
	return true, nil
}

// PresignGET generates a time-limited download URL (§4.7 "List pending",
// §6 certificate/status) via the external-facing client.
func (s *S3Store) PresignGET(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presigning object %s: %w", key, err)
	}
	return req.URL, nil
}

// Key renders the content-addressed key layout from spec.md §6.
func Key(enrollmentNumber, checksum, extension string) string {
	return fmt.Sprintf("certificates/%s/%s.%s", enrollmentNumber, checksum, extension)
}

// ContentType maps a file extension to the MIME type used at upload time,
// matching original_source/services/s3_service.py's _get_content_type.
func ContentType(extension string) string {
	switch extension {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tiff":
		return "image/tiff"
	case "bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
