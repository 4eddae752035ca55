package assetstore

import (
	"context"
	"fmt"
	"iter"
	"path"
	"strings"

	"github.com/hashvault/assetstore/types"
)

// defaultMaxCandidates bounds the default rename strategy. The sequence
// must be finite so the rename policy terminates.
const defaultMaxCandidates = 100

// RenameStrategy produces alternative keys for the rename conflict
// policy. Candidates are consulted in order; implementations must yield
// a finite sequence.
type RenameStrategy interface {
	Candidates(key string) iter.Seq[string]
}

// SuffixRename is the default rename strategy: it appends an increasing
// numeric suffix before the key's extension, up to Max candidates.
type SuffixRename struct {
	Max int
}

// NewSuffixRename constructs a SuffixRename with the given candidate
// budget; non-positive budgets use the default.
func NewSuffixRename(max int) SuffixRename {
	if max <= 0 {
		max = defaultMaxCandidates
	}
	return SuffixRename{Max: max}
}

// Candidates yields "stem-1.ext", "stem-2.ext", ... up to Max entries.
func (s SuffixRename) Candidates(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		ext := path.Ext(key)
		stem := strings.TrimSuffix(key, ext)
		for i := 1; i <= s.Max; i++ {
			if !yield(fmt.Sprintf("%s-%d%s", stem, i, ext)) {
				return
			}
		}
	}
}

// resolveConflict decides where (and whether) a write lands.
//
// It returns the key to write to, or useExisting=true when the policy
// says to skip the transfer and report the stored object instead. The
// existence check and the eventual write are separate backend calls;
// two concurrent writers may both observe an absent key and both
// proceed, with the backend's own semantics deciding the winner. That
// race is documented behavior, not masked here.
func (s *Store) resolveConflict(ctx context.Context, key string, policy types.ConflictPolicy) (resolved string, useExisting bool, err error) {
	if policy == "" || policy == types.ConflictOverwrite {
		return key, false, nil
	}

	exists, err := s.backend.Exists(ctx, key)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return key, false, nil
	}

	switch policy {
	case types.ConflictFail:
		return "", false, fmt.Errorf("%w: %s", ErrConflict, key)
	case types.ConflictRename:
		for candidate := range s.rename.Candidates(key) {
			taken, err := s.backend.Exists(ctx, candidate)
			if err != nil {
				return "", false, err
			}
			if !taken {
				return candidate, false, nil
			}
		}
		return "", false, fmt.Errorf("%w: rename candidates exhausted for %s", ErrConflict, key)
	default:
		// Use-existing, and the fallback for unknown policies.
		return "", true, nil
	}
}
