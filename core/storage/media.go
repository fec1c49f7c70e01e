package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// MediaStore persists uploaded observation media under one bucket and maps
// object keys to the public URLs stored on rows.
type MediaStore struct {
	client Client
	bucket string
	base   string
	prefix string
}

// NewMediaStore wraps a storage client for media persistence.
func NewMediaStore(client Client, cfg Config) *MediaStore {
	return &MediaStore{
		client: client,
		bucket: cfg.Bucket,
		base:   cfg.BaseURL(),
		prefix: cfg.UploadPrefix,
	}
}

// EnsureBucket creates the media bucket if it does not exist yet.
func (m *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return nil
}

// Key builds the object key for a stored file name.
func (m *MediaStore) Key(name string) string {
	return m.prefix + name
}

// Save uploads content under key.
func (m *MediaStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of an object key.
func (m *MediaStore) URL(key string) string {
	return m.base + "/" + key
}

// Locate maps a public URL back to its object key. URLs that do not point
// into this store (for example imported external photos) report false.
func (m *MediaStore) Locate(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, m.base+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Exists reports whether an object is present.
func (m *MediaStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

// Delete removes one object. A missing object is not an error.
func (m *MediaStore) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
