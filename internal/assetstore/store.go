// Package assetstore maps logical file identities (filename plus
// content hash plus optional variant) onto physical object-store keys,
// enforces conflict policy on writes, manages public/protected
// visibility, and enumerates variant files alongside their originals.
//
// The store holds no state of its own beyond what the backend stores.
// A single Store value is safe for concurrent use: all key derivation
// is pure, and every operation is a synchronous sequence of backend
// calls. The check-then-write sequence of the fail and rename policies
// is not atomic; see resolveConflict.
package assetstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashvault/assetstore/internal/storage"
	"github.com/hashvault/assetstore/types"
)

const defaultURLExpiry = 15 * time.Minute

// Store is the asset-store surface offered to the hosting application.
type Store struct {
	backend   storage.Backend
	rename    RenameStrategy
	urlExpiry time.Duration
}

// Option customizes a Store at construction time.
type Option func(*Store)

// WithRenameStrategy replaces the default suffix-based rename strategy.
func WithRenameStrategy(strategy RenameStrategy) Option {
	return func(s *Store) { s.rename = strategy }
}

// WithURLExpiry sets the validity window of signed URLs for protected
// objects.
func WithURLExpiry(expiry time.Duration) Option {
	return func(s *Store) { s.urlExpiry = expiry }
}

// New constructs a Store over the given backend. Capability problems
// surface here as ErrMisconfigured rather than per operation.
func New(backend storage.Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", ErrMisconfigured)
	}

	s := &Store{
		backend:   backend,
		rename:    NewSuffixRename(defaultMaxCandidates),
		urlExpiry: defaultURLExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.rename == nil {
		return nil, fmt.Errorf("%w: rename strategy is required", ErrMisconfigured)
	}
	if s.urlExpiry <= 0 {
		return nil, fmt.Errorf("%w: url expiry must be positive", ErrMisconfigured)
	}
	return s, nil
}

// Key returns the physical storage key of an identity.
func (s *Store) Key(id types.FileIdentity) string {
	return DeriveKey(id.Filename, id.Hash, id.Variant)
}

// Exists reports whether the identity has a stored object.
func (s *Store) Exists(ctx context.Context, id types.FileIdentity) (bool, error) {
	return s.backend.Exists(ctx, s.Key(id))
}

// ReadStream opens a reader over the stored object.
func (s *Store) ReadStream(ctx context.Context, id types.FileIdentity) (io.ReadCloser, error) {
	return s.backend.ReadStream(ctx, s.Key(id))
}

// ReadAll reads the stored object into memory.
func (s *Store) ReadAll(ctx context.Context, id types.FileIdentity) ([]byte, error) {
	return s.backend.ReadAll(ctx, s.Key(id))
}

// GetVisibility returns the stored visibility of the identity.
func (s *Store) GetVisibility(ctx context.Context, id types.FileIdentity) (types.Visibility, error) {
	return s.backend.GetVisibility(ctx, s.Key(id))
}

// Publish marks the stored object public.
func (s *Store) Publish(ctx context.Context, id types.FileIdentity) error {
	return s.backend.SetVisibility(ctx, s.Key(id), types.VisibilityPublic)
}

// Protect marks the stored object protected.
func (s *Store) Protect(ctx context.Context, id types.FileIdentity) error {
	return s.backend.SetVisibility(ctx, s.Key(id), types.VisibilityProtected)
}

// URL returns an access URL for the stored object, dispatching on its
// visibility: public objects get a plain public URL, protected objects
// a time-limited signed URL.
func (s *Store) URL(ctx context.Context, id types.FileIdentity) (string, error) {
	key := s.Key(id)
	visibility, err := s.backend.GetVisibility(ctx, key)
	if err != nil {
		return "", err
	}
	if visibility == types.VisibilityPublic {
		return s.backend.PublicURL(ctx, key)
	}
	return s.backend.SignedURL(ctx, key, s.urlExpiry)
}

// Stat returns backend metadata for the stored object.
func (s *Store) Stat(ctx context.Context, id types.FileIdentity) (types.ObjectInfo, error) {
	return s.backend.Stat(ctx, s.Key(id))
}

// ContentType returns the stored MIME type of the object.
func (s *Store) ContentType(ctx context.Context, id types.FileIdentity) (string, error) {
	return s.backend.ContentType(ctx, s.Key(id))
}

// Grant is a no-op: access control for protected content is delegated
// entirely to the backend's URL signing, not an internal grant ledger.
func (s *Store) Grant(context.Context, types.FileIdentity, string) error {
	return nil
}

// Revoke is a no-op, for the same reason as Grant.
func (s *Store) Revoke(context.Context, types.FileIdentity, string) error {
	return nil
}

// CanView always reports true; viewers of protected content are gated
// by signed-URL possession instead.
func (s *Store) CanView(context.Context, types.FileIdentity, string) bool {
	return true
}

// Backend exposes the underlying object-store backend.
func (s *Store) Backend() storage.Backend {
	return s.backend
}
