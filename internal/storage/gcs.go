package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/hashvault/assetstore/config"
	"github.com/hashvault/assetstore/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBackend implements Backend on Google Cloud Storage. Visibility is
// expressed through the AllUsers ACL entry: present means public,
// absent means protected.
type GCSBackend struct {
	client    *gcs.Client
	bucket    string
	projectID string
}

// NewGCSBackend constructs a GCS-backed object store from config.
func NewGCSBackend(ctx context.Context, cfg config.GCSConfig) (*GCSBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSBackend{
		client:    client,
		bucket:    cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (g *GCSBackend) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

// Exists reports whether an object is stored under key.
func (g *GCSBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadStream opens a reader for the object at key.
func (g *GCSBackend) ReadStream(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := g.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// ReadAll reads the full object at key into memory.
func (g *GCSBackend) ReadAll(ctx context.Context, key string) ([]byte, error) {
	r, err := g.ReadStream(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteStream stores the content of r under key.
func (g *GCSBackend) WriteStream(ctx context.Context, key string, r io.Reader, _ int64, cfg types.WriteConfig) error {
	writer := g.object(key).NewWriter(ctx)
	if strings.TrimSpace(cfg.ContentType) != "" {
		writer.ContentType = cfg.ContentType
	}
	if cfg.Visibility == types.VisibilityPublic {
		writer.PredefinedACL = "publicRead"
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// WriteAll stores data under key.
func (g *GCSBackend) WriteAll(ctx context.Context, key string, data []byte, cfg types.WriteConfig) error {
	return g.WriteStream(ctx, key, bytes.NewReader(data), int64(len(data)), cfg)
}

// Delete removes the object at key.
func (g *GCSBackend) Delete(ctx context.Context, key string) error {
	err := g.object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// List enumerates the immediate children of the given directory prefix.
func (g *GCSBackend) List(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	it := g.client.Bucket(g.bucket).Objects(ctx, &gcs.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		if attrs.Prefix != "" {
			entries = append(entries, Entry{Path: strings.TrimSuffix(attrs.Prefix, "/"), IsDir: true})
			continue
		}
		entries = append(entries, Entry{Path: attrs.Name})
	}
	return entries, nil
}

// GetVisibility returns the stored visibility of key.
func (g *GCSBackend) GetVisibility(ctx context.Context, key string) (types.Visibility, error) {
	attrs, err := g.object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	for _, rule := range attrs.ACL {
		if rule.Entity == gcs.AllUsers && rule.Role == gcs.RoleReader {
			return types.VisibilityPublic, nil
		}
	}
	return types.VisibilityProtected, nil
}

// SetVisibility changes the stored visibility of key.
func (g *GCSBackend) SetVisibility(ctx context.Context, key string, visibility types.Visibility) error {
	acl := g.object(key).ACL()
	var err error
	if visibility == types.VisibilityPublic {
		err = acl.Set(ctx, gcs.AllUsers, gcs.RoleReader)
	} else {
		err = acl.Delete(ctx, gcs.AllUsers)
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}

// Stat returns backend metadata for key.
func (g *GCSBackend) Stat(ctx context.Context, key string) (types.ObjectInfo, error) {
	attrs, err := g.object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return types.ObjectInfo{}, ErrNotFound
		}
		return types.ObjectInfo{}, err
	}
	return types.ObjectInfo{
		Key:          key,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
	}, nil
}

// ContentType returns the stored MIME type for key.
func (g *GCSBackend) ContentType(ctx context.Context, key string) (string, error) {
	info, err := g.Stat(ctx, key)
	if err != nil {
		return "", err
	}
	return info.ContentType, nil
}

// PublicURL returns a plain URL serving a public object.
func (g *GCSBackend) PublicURL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key), nil
}

// SignedURL returns a time-limited URL serving a protected object.
func (g *GCSBackend) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	return g.client.Bucket(g.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
		Scheme:  gcs.SigningSchemeV4,
	})
}

// Client exposes the underlying GCS SDK client.
func (g *GCSBackend) Client() *gcs.Client {
	return g.client
}

// Bucket returns the configured bucket name.
func (g *GCSBackend) Bucket() string {
	return g.bucket
}

func (g *GCSBackend) object(key string) *gcs.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(key)
}
