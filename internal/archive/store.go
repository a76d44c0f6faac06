// Package archive keeps a copy of every rendered agreement in an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"contractflow/internal/document"
)

const defaultURLExpiry = 7 * 24 * time.Hour

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// Object is an archived document and a time-limited download link.
type Object struct {
	Key string
	URL string
}

// Store writes agreements to one bucket.
type Store struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	return &Store{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Put uploads doc under key and returns a presigned download URL.
func (s *Store) Put(ctx context.Context, key string, doc []byte) (*Object, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(doc), int64(len(doc)), minio.PutObjectOptions{
		ContentType: document.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, nil)
	if err != nil {
		return &Object{Key: key}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return &Object{Key: key, URL: u.String()}, nil
}

// ObjectKey lays archived agreements out by day: contracts/2025/06/03/<run>-<file>.
func ObjectKey(runID string, at time.Time, filename string) string {
	return path.Join("contracts", at.UTC().Format("2006/01/02"), runID+"-"+filename)
}
