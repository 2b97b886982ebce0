package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStore struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinio buat koneksi MinIO/S3
func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: cli, bucketName: bucket, region: region}, nil
}

// ContentTypeFor maps a stored key's extension to a content type
func ContentTypeFor(key string) string {
	switch filepath.Ext(key) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tiff":
		return "image/tiff"
	case ".dwg":
		return "application/acad"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

// Put implementasi FileStore
func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucketName, key)
	return url, nil
}

// Presign generates a time-limited download URL
func (s *MinioStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Fetch downloads the object into a temp file; cleanup removes it
func (s *MinioStore) Fetch(ctx context.Context, key string) (string, func(), error) {
	tmp, err := os.CreateTemp("", "edrs-diagram-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, err
	}
	tmp.Close()

	if err := s.client.FGetObject(ctx, s.bucketName, key, tmp.Name(), minio.GetObjectOptions{}); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

// Remove deletes a stored object
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
}
