package assetstore

import (
	"context"
	"fmt"
	"iter"
	"path"
	"strings"
)

// FindVariants enumerates every stored key sharing key's logical
// identity: the original itself plus each __variant sibling in the same
// namespace. The sequence is lazy and restartable; each range performs
// one backend listing. Nothing is cached between calls.
func (s *Store) FindVariants(ctx context.Context, key string) iter.Seq2[string, error] {
	base := StripVariant(key)

	prefix := ""
	if dir := path.Dir(base); dir != "." {
		prefix = dir + "/"
	}

	return func(yield func(string, error) bool) {
		entries, err := s.backend.List(ctx, prefix)
		if err != nil {
			yield("", err)
			return
		}
		for _, entry := range entries {
			if entry.IsDir {
				continue
			}
			if StripVariant(entry.Path) != base {
				continue
			}
			if !yield(entry.Path, nil) {
				return
			}
		}
	}
}

// Delete removes a logical file and all of its variants. It returns
// true when at least one key was found and removed, false when the
// logical file did not exist.
//
// Deletion is not transactional: a backend failure mid-enumeration
// propagates immediately and siblings already deleted stay deleted.
func (s *Store) Delete(ctx context.Context, filename, hash string) (bool, error) {
	if strings.TrimSpace(filename) == "" {
		return false, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if strings.TrimSpace(hash) == "" {
		return false, fmt.Errorf("%w: hash is required", ErrInvalidInput)
	}

	key := DeriveKey(filename, hash, "")

	deleted := false
	for sibling, err := range s.FindVariants(ctx, key) {
		if err != nil {
			return deleted, err
		}
		if err := s.backend.Delete(ctx, sibling); err != nil {
			return deleted, err
		}
		deleted = true
	}
	return deleted, nil
}
