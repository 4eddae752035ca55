package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashvault/assetstore/types"
)

// MemoryBackend implements Backend on a process-local map. It exists for
// tests and local development; the listing and visibility semantics
// mirror the cloud backends.
type MemoryBackend struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]*memoryObject
}

type memoryObject struct {
	data        []byte
	visibility  types.Visibility
	contentType string
	modified    time.Time
}

// NewMemoryBackend constructs an empty in-memory object store.
func NewMemoryBackend(bucket string) *MemoryBackend {
	if bucket == "" {
		bucket = "memory"
	}
	return &MemoryBackend{
		bucket:  bucket,
		objects: make(map[string]*memoryObject),
	}
}

// Exists reports whether an object is stored under key.
func (m *MemoryBackend) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// ReadStream opens a reader for the object at key.
func (m *MemoryBackend) ReadStream(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := m.ReadAll(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ReadAll reads the full object at key into memory.
func (m *MemoryBackend) ReadAll(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	object, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	data := make([]byte, len(object.data))
	copy(data, object.data)
	return data, nil
}

// WriteStream stores the content of r under key.
func (m *MemoryBackend) WriteStream(ctx context.Context, key string, r io.Reader, _ int64, cfg types.WriteConfig) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return m.WriteAll(ctx, key, data, cfg)
}

// WriteAll stores data under key.
func (m *MemoryBackend) WriteAll(_ context.Context, key string, data []byte, cfg types.WriteConfig) error {
	visibility := cfg.Visibility
	if !visibility.Valid() {
		visibility = types.VisibilityPublic
	}
	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &memoryObject{
		data:        stored,
		visibility:  visibility,
		contentType: cfg.ContentType,
		modified:    time.Now(),
	}
	return nil
}

// Delete removes the object at key.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// List enumerates the immediate children of the given directory prefix.
func (m *MemoryBackend) List(_ context.Context, prefix string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var entries []Entry
	for key := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			dir := prefix + rest[:slash]
			if !seen[dir] {
				seen[dir] = true
				entries = append(entries, Entry{Path: dir, IsDir: true})
			}
			continue
		}
		entries = append(entries, Entry{Path: key})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// GetVisibility returns the stored visibility of key.
func (m *MemoryBackend) GetVisibility(_ context.Context, key string) (types.Visibility, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	object, ok := m.objects[key]
	if !ok {
		return "", ErrNotFound
	}
	return object.visibility, nil
}

// SetVisibility changes the stored visibility of key.
func (m *MemoryBackend) SetVisibility(_ context.Context, key string, visibility types.Visibility) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	object, ok := m.objects[key]
	if !ok {
		return ErrNotFound
	}
	object.visibility = visibility
	return nil
}

// Stat returns backend metadata for key.
func (m *MemoryBackend) Stat(_ context.Context, key string) (types.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	object, ok := m.objects[key]
	if !ok {
		return types.ObjectInfo{}, ErrNotFound
	}
	return types.ObjectInfo{
		Key:          key,
		Size:         int64(len(object.data)),
		ContentType:  object.contentType,
		LastModified: object.modified,
	}, nil
}

// ContentType returns the stored MIME type for key.
func (m *MemoryBackend) ContentType(ctx context.Context, key string) (string, error) {
	info, err := m.Stat(ctx, key)
	if err != nil {
		return "", err
	}
	return info.ContentType, nil
}

// PublicURL returns a synthetic URL for a public object.
func (m *MemoryBackend) PublicURL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("memory://%s/%s", m.bucket, url.PathEscape(key)), nil
}

// SignedURL returns a synthetic time-limited URL for a protected object.
func (m *MemoryBackend) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	deadline := time.Now().Add(expiry).Unix()
	return fmt.Sprintf("memory://%s/%s?expires=%d", m.bucket, url.PathEscape(key), deadline), nil
}

// Bucket returns the configured bucket name.
func (m *MemoryBackend) Bucket() string {
	return m.bucket
}
