package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hashvault/assetstore/types"
)

// ErrNotFound is returned when a key does not exist in the backend.
var ErrNotFound = errors.New("object not found")

// Entry is one result of a prefix listing.
type Entry struct {
	// Path is the full key of the entry, or the prefix of a
	// sub-directory (without trailing slash).
	Path string

	// IsDir marks the entry as a sub-directory prefix rather than an
	// object.
	IsDir bool
}

// Backend is the capability contract the asset store requires of an
// object store. Every method may block on backend I/O; callers impose
// deadlines through ctx.
type Backend interface {
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// ReadStream opens a reader for the object at key. Returns
	// ErrNotFound when the key is absent.
	ReadStream(ctx context.Context, key string) (io.ReadCloser, error)

	// ReadAll reads the full object at key into memory. Returns
	// ErrNotFound when the key is absent.
	ReadAll(ctx context.Context, key string) ([]byte, error)

	// WriteStream stores the content of r under key. A size of -1 means
	// unknown length.
	WriteStream(ctx context.Context, key string, r io.Reader, size int64, cfg types.WriteConfig) error

	// WriteAll stores data under key.
	WriteAll(ctx context.Context, key string, data []byte, cfg types.WriteConfig) error

	// Delete removes the object at key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// List enumerates the immediate children of the given directory
	// prefix. The prefix must end with "/" or be empty.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// GetVisibility returns the stored visibility of key, or ErrNotFound
	// when the key is absent.
	GetVisibility(ctx context.Context, key string) (types.Visibility, error)

	// SetVisibility changes the stored visibility of key.
	SetVisibility(ctx context.Context, key string, visibility types.Visibility) error

	// Stat returns backend metadata for key, or ErrNotFound.
	Stat(ctx context.Context, key string) (types.ObjectInfo, error)

	// ContentType returns the stored MIME type for key, or ErrNotFound.
	ContentType(ctx context.Context, key string) (string, error)

	// PublicURL returns a plain URL serving a public object.
	PublicURL(ctx context.Context, key string) (string, error)

	// SignedURL returns a time-limited URL serving a protected object.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Bucket returns the configured bucket name.
	Bucket() string
}
