package assetstore

import (
	"context"
	"errors"
	"testing"

	"github.com/hashvault/assetstore/internal/storage"
	"github.com/hashvault/assetstore/types"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend("test")
	store, err := New(backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store, backend
}

func TestResolveConflictOverwrite(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	const key = "abcdef1234/taken.txt"
	if err := backend.WriteAll(ctx, key, []byte("old"), types.WriteConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resolved, useExisting, err := store.resolveConflict(ctx, key, types.ConflictOverwrite)
	if err != nil {
		t.Fatalf("resolveConflict: %v", err)
	}
	if useExisting {
		t.Fatalf("overwrite must never signal use-existing")
	}
	if resolved != key {
		t.Fatalf("resolved = %q, want %q", resolved, key)
	}
}

func TestResolveConflictFail(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	const key = "abcdef1234/taken.txt"

	// Absent key resolves like overwrite.
	resolved, useExisting, err := store.resolveConflict(ctx, key, types.ConflictFail)
	if err != nil || useExisting || resolved != key {
		t.Fatalf("absent key: got (%q, %v, %v), want (%q, false, nil)", resolved, useExisting, err, key)
	}

	if err := backend.WriteAll(ctx, key, []byte("old"), types.WriteConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, err = store.resolveConflict(ctx, key, types.ConflictFail)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("existing key: err = %v, want ErrConflict", err)
	}
}

func TestResolveConflictRename(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	const key = "abcdef1234/taken.txt"
	if err := backend.WriteAll(ctx, key, []byte("old"), types.WriteConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// First candidate is taken too; the second must win.
	if err := backend.WriteAll(ctx, "abcdef1234/taken-1.txt", []byte("old"), types.WriteConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resolved, useExisting, err := store.resolveConflict(ctx, key, types.ConflictRename)
	if err != nil {
		t.Fatalf("resolveConflict: %v", err)
	}
	if useExisting {
		t.Fatalf("rename must never signal use-existing")
	}
	if resolved != "abcdef1234/taken-2.txt" {
		t.Fatalf("resolved = %q, want %q", resolved, "abcdef1234/taken-2.txt")
	}
}

func TestResolveConflictRenameExhausted(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend("test")
	store, err := New(backend, WithRenameStrategy(SuffixRename{Max: 2}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, key := range []string{
		"abcdef1234/taken.txt",
		"abcdef1234/taken-1.txt",
		"abcdef1234/taken-2.txt",
	} {
		if err := backend.WriteAll(ctx, key, []byte("old"), types.WriteConfig{}); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	_, _, err = store.resolveConflict(ctx, "abcdef1234/taken.txt", types.ConflictRename)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestResolveConflictUseExisting(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	const key = "abcdef1234/taken.txt"
	if err := backend.WriteAll(ctx, key, []byte("old"), types.WriteConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, useExisting, err := store.resolveConflict(ctx, key, types.ConflictUseExisting)
	if err != nil {
		t.Fatalf("resolveConflict: %v", err)
	}
	if !useExisting {
		t.Fatalf("expected use-existing signal")
	}

	// Unknown policies fall back to use-existing.
	_, useExisting, err = store.resolveConflict(ctx, key, types.ConflictPolicy("mystery"))
	if err != nil || !useExisting {
		t.Fatalf("unknown policy: got (%v, %v), want use-existing", useExisting, err)
	}
}

func TestSuffixRenameCandidates(t *testing.T) {
	strategy := NewSuffixRename(3)

	var got []string
	for candidate := range strategy.Candidates("dir/abcdef1234/name.jpg") {
		got = append(got, candidate)
	}

	want := []string{
		"dir/abcdef1234/name-1.jpg",
		"dir/abcdef1234/name-2.jpg",
		"dir/abcdef1234/name-3.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d = %q, want %q", i, got[i], want[i])
		}
	}
}
