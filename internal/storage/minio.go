package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/hashvault/assetstore/config"
	"github.com/hashvault/assetstore/types"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"
)

// visibilityTag is the object tag key carrying the visibility value.
// Tags are used instead of user metadata because they are mutable
// without rewriting the object.
const visibilityTag = "visibility"

// MinioBackend implements Backend on any S3-compatible store via the
// MinIO SDK.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinioBackend constructs a MinIO-backed object store from config.
func NewMinioBackend(cfg config.MinioConfig) (*MinioBackend, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioBackend{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (m *MinioBackend) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

// Exists reports whether an object is stored under key.
func (m *MinioBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadStream opens a reader for the object at key.
func (m *MinioBackend) ReadStream(ctx context.Context, key string) (io.ReadCloser, error) {
	// GetObject is lazy; stat first so absent keys surface here.
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
}

// ReadAll reads the full object at key into memory.
func (m *MinioBackend) ReadAll(ctx context.Context, key string) ([]byte, error) {
	r, err := m.ReadStream(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteStream stores the content of r under key.
func (m *MinioBackend) WriteStream(ctx context.Context, key string, r io.Reader, size int64, cfg types.WriteConfig) error {
	opts := minio.PutObjectOptions{
		ContentType: cfg.ContentType,
	}
	if cfg.Visibility.Valid() {
		opts.UserTags = map[string]string{visibilityTag: string(cfg.Visibility)}
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, opts)
	return err
}

// WriteAll stores data under key.
func (m *MinioBackend) WriteAll(ctx context.Context, key string, data []byte, cfg types.WriteConfig) error {
	return m.WriteStream(ctx, key, bytes.NewReader(data), int64(len(data)), cfg)
}

// Delete removes the object at key.
func (m *MinioBackend) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// List enumerates the immediate children of the given directory prefix.
func (m *MinioBackend) List(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	objects := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})
	for object := range objects {
		if object.Err != nil {
			return nil, object.Err
		}
		if strings.HasSuffix(object.Key, "/") {
			entries = append(entries, Entry{Path: strings.TrimSuffix(object.Key, "/"), IsDir: true})
			continue
		}
		entries = append(entries, Entry{Path: object.Key})
	}
	return entries, nil
}

// GetVisibility returns the stored visibility of key. Objects without a
// visibility tag count as public.
func (m *MinioBackend) GetVisibility(ctx context.Context, key string) (types.Visibility, error) {
	objectTags, err := m.client.GetObjectTagging(ctx, m.bucket, key, minio.GetObjectTaggingOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	visibility := types.Visibility(objectTags.ToMap()[visibilityTag])
	if !visibility.Valid() {
		return types.VisibilityPublic, nil
	}
	return visibility, nil
}

// SetVisibility changes the stored visibility of key.
func (m *MinioBackend) SetVisibility(ctx context.Context, key string, visibility types.Visibility) error {
	if exists, err := m.Exists(ctx, key); err != nil {
		return err
	} else if !exists {
		return ErrNotFound
	}
	objectTags, err := tags.NewTags(map[string]string{visibilityTag: string(visibility)}, true)
	if err != nil {
		return err
	}
	return m.client.PutObjectTagging(ctx, m.bucket, key, objectTags, minio.PutObjectTaggingOptions{})
}

// Stat returns backend metadata for key.
func (m *MinioBackend) Stat(ctx context.Context, key string) (types.ObjectInfo, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return types.ObjectInfo{}, ErrNotFound
		}
		return types.ObjectInfo{}, err
	}
	return types.ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// ContentType returns the stored MIME type for key.
func (m *MinioBackend) ContentType(ctx context.Context, key string) (string, error) {
	info, err := m.Stat(ctx, key)
	if err != nil {
		return "", err
	}
	return info.ContentType, nil
}

// PublicURL returns a plain URL serving a public object.
func (m *MinioBackend) PublicURL(_ context.Context, key string) (string, error) {
	endpoint := m.client.EndpointURL()
	u := url.URL{
		Scheme: endpoint.Scheme,
		Host:   endpoint.Host,
		Path:   fmt.Sprintf("/%s/%s", m.bucket, key),
	}
	return u.String(), nil
}

// SignedURL returns a time-limited URL serving a protected object.
func (m *MinioBackend) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Client exposes the underlying MinIO SDK client.
func (m *MinioBackend) Client() *minio.Client {
	return m.client
}

// Bucket returns the configured bucket name.
func (m *MinioBackend) Bucket() string {
	return m.bucket
}

func isMinioNotFound(err error) bool {
	response := minio.ToErrorResponse(err)
	return response.Code == "NoSuchKey" || response.StatusCode == 404
}
