package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore keeps diagram files on the local filesystem under a root
// directory, same key layout as the S3 backend. Used for development and
// single-node deployments.
type LocalStore struct {
	root string
}

func NewLocal(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

// Put implementasi FileStore
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", err
	}
	return "file://" + dst, nil
}

// Presign has nothing to sign locally; it returns the file URL directly
func (s *LocalStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dst); err != nil {
		return "", err
	}
	return "file://" + dst, nil
}

// Fetch returns the file's own path; no copy is needed locally
func (s *LocalStore) Fetch(ctx context.Context, key string) (string, func(), error) {
	dst, err := s.path(key)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(dst); err != nil {
		return "", nil, err
	}
	return dst, func() {}, nil
}

// Remove deletes the stored file
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}
