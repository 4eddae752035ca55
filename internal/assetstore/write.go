package assetstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashvault/assetstore/internal/storage"
	"github.com/hashvault/assetstore/types"
)

// WriterFunc performs the byte transfer of a write: it stores the
// caller's content under key at the backend. The orchestrator invokes
// it at most once per write, after conflict resolution and visibility
// inheritance have settled the key and config.
type WriterFunc func(ctx context.Context, backend storage.Backend, key string, cfg types.WriteConfig) error

// Write runs the full write pipeline: validate inputs, derive the key,
// resolve conflicts, inherit visibility, transfer bytes via writerFn,
// and reconcile the final identity (capturing any rename).
//
// hash must be the content hash of the original (variant-less) content.
// Under the use-existing policy on an original, the returned hash is
// recomputed from the stored object, letting callers detect that their
// supplied hash was stale; variant writes return the caller's hash
// unchanged since variants share the original's hash by construction.
func (s *Store) Write(ctx context.Context, writerFn WriterFunc, filename, hash, variant string, cfg types.WriteConfig) (types.FileIdentity, error) {
	if strings.TrimSpace(filename) == "" {
		return types.FileIdentity{}, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if strings.TrimSpace(hash) == "" {
		return types.FileIdentity{}, fmt.Errorf("%w: hash is required", ErrInvalidInput)
	}
	if variant != "" && !variantTokenPattern.MatchString(variant) {
		return types.FileIdentity{}, fmt.Errorf("%w: variant %q is not a valid token", ErrInvalidInput, variant)
	}
	if variant != "" && cfg.Conflict == types.ConflictRename {
		// Variants must stay at their deterministic key.
		return types.FileIdentity{}, fmt.Errorf("%w: variants cannot be written with the rename policy", ErrInvalidInput)
	}
	if cfg.Conflict == "" {
		cfg.Conflict = types.ConflictOverwrite
	}

	filename = CleanFilename(filename)
	key := DeriveKey(filename, hash, variant)

	resolved, useExisting, err := s.resolveConflict(ctx, key, cfg.Conflict)
	if err != nil {
		return types.FileIdentity{}, err
	}

	if useExisting {
		if variant != "" {
			return types.FileIdentity{Filename: filename, Hash: hash, Variant: variant}, nil
		}
		storedHash, err := s.hashStored(ctx, key)
		if err != nil {
			return types.FileIdentity{}, err
		}
		return types.FileIdentity{Filename: filename, Hash: storedHash}, nil
	}

	if !cfg.Visibility.Valid() {
		inherited, err := s.inheritVisibility(ctx, key)
		if err != nil {
			return types.FileIdentity{}, err
		}
		cfg.Visibility = inherited
	}

	if err := writerFn(ctx, s.backend, resolved, cfg); err != nil {
		return types.FileIdentity{}, fmt.Errorf("%w: %s: %w", ErrWriteFailed, resolved, err)
	}

	return types.FileIdentity{
		Filename: OriginalFilename(resolved),
		Hash:     hash,
		Variant:  variant,
	}, nil
}

// WriteFromLocalFile stores the content of the file at localPath. For
// originals (no variant) the content hash is computed from the file;
// variant writes must pass the original's hash.
func (s *Store) WriteFromLocalFile(ctx context.Context, localPath, filename, hash, variant string, cfg types.WriteConfig) (types.FileIdentity, error) {
	if variant == "" {
		computed, err := hashLocalFile(localPath)
		if err != nil {
			return types.FileIdentity{}, fmt.Errorf("%w: hash %s: %w", ErrWriteFailed, localPath, err)
		}
		hash = computed
	}

	writerFn := func(ctx context.Context, backend storage.Backend, key string, cfg types.WriteConfig) error {
		f, err := os.Open(localPath)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		return backend.WriteStream(ctx, key, f, info.Size(), cfg)
	}
	return s.Write(ctx, writerFn, filename, hash, variant, cfg)
}

// WriteFromBuffer stores an in-memory payload. For originals the
// content hash is computed from the buffer; variant writes must pass
// the original's hash.
func (s *Store) WriteFromBuffer(ctx context.Context, data []byte, filename, hash, variant string, cfg types.WriteConfig) (types.FileIdentity, error) {
	if variant == "" {
		sum := sha256.Sum256(data)
		hash = hex.EncodeToString(sum[:])
	}

	writerFn := func(ctx context.Context, backend storage.Backend, key string, cfg types.WriteConfig) error {
		return backend.WriteAll(ctx, key, data, cfg)
	}
	return s.Write(ctx, writerFn, filename, hash, variant, cfg)
}

// WriteFromStream stores the content of r. Seekable streams are hashed
// in place and rewound; non-seekable streams are first buffered to a
// temporary file (removed regardless of outcome) and delegated to the
// local-file path.
func (s *Store) WriteFromStream(ctx context.Context, r io.Reader, filename, hash, variant string, cfg types.WriteConfig) (types.FileIdentity, error) {
	rs, seekable := r.(io.ReadSeeker)
	if !seekable {
		return s.writeBufferedStream(ctx, r, filename, hash, variant, cfg)
	}

	if variant == "" {
		computed, err := hashStream(rs)
		if err != nil {
			return types.FileIdentity{}, fmt.Errorf("%w: hash stream: %w", ErrWriteFailed, err)
		}
		hash = computed
	}

	writerFn := func(ctx context.Context, backend storage.Backend, key string, cfg types.WriteConfig) error {
		return backend.WriteStream(ctx, key, rs, -1, cfg)
	}
	return s.Write(ctx, writerFn, filename, hash, variant, cfg)
}

// writeBufferedStream spools a non-seekable stream to a temp file so it
// can be hashed and streamed like a local file. The temp file is
// removed on every path out.
func (s *Store) writeBufferedStream(ctx context.Context, r io.Reader, filename, hash, variant string, cfg types.WriteConfig) (types.FileIdentity, error) {
	tmp, err := os.CreateTemp("", "assetstore-*")
	if err != nil {
		return types.FileIdentity{}, fmt.Errorf("%w: buffer stream: %w", ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return types.FileIdentity{}, fmt.Errorf("%w: buffer stream: %w", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return types.FileIdentity{}, fmt.Errorf("%w: buffer stream: %w", ErrWriteFailed, err)
	}

	return s.WriteFromLocalFile(ctx, tmpPath, filename, hash, variant, cfg)
}

// inheritVisibility looks up the original's current visibility for a
// write that did not specify one. Absent originals default to public.
func (s *Store) inheritVisibility(ctx context.Context, key string) (types.Visibility, error) {
	visibility, err := s.backend.GetVisibility(ctx, StripVariant(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.VisibilityPublic, nil
		}
		return "", err
	}
	return visibility, nil
}

// hashStored recomputes the content hash of the object stored at key.
func (s *Store) hashStored(ctx context.Context, key string) (string, error) {
	r, err := s.backend.ReadStream(ctx, key)
	if err != nil {
		return "", err
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashLocalFile(localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return hashStream(f)
}

// hashStream hashes a seekable stream from its current offset and seeks
// back to that offset, so the bytes hashed are exactly the bytes a
// subsequent read will transfer.
func hashStream(rs io.ReadSeeker) (string, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	if _, err := io.Copy(h, rs); err != nil {
		return "", err
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the hex-encoded SHA-256 of data. Exposed so callers
// writing variants can compute the original's hash the same way the
// store does.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
