package assetstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashvault/assetstore/internal/storage"
	"github.com/hashvault/assetstore/types"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestWriteValidation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	noop := func(context.Context, storage.Backend, string, types.WriteConfig) error { return nil }

	if _, err := store.Write(ctx, noop, "", "abc", "", types.WriteConfig{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty filename: err = %v, want ErrInvalidInput", err)
	}
	if _, err := store.Write(ctx, noop, "a.txt", "", "", types.WriteConfig{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty hash: err = %v, want ErrInvalidInput", err)
	}
	if _, err := store.Write(ctx, noop, "a.txt", "abc", "bad_token", types.WriteConfig{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("malformed variant: err = %v, want ErrInvalidInput", err)
	}

	cfg := types.WriteConfig{Conflict: types.ConflictRename}
	if _, err := store.Write(ctx, noop, "a.txt", "abc", "thumb", cfg); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("variant with rename: err = %v, want ErrInvalidInput", err)
	}
}

func TestWriteFromBuffer(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	data := []byte("hello asset")
	id, err := store.WriteFromBuffer(ctx, data, "folder/My File.jpg", "", "", types.WriteConfig{})
	if err != nil {
		t.Fatalf("WriteFromBuffer: %v", err)
	}

	if id.Filename != "folder/My File.jpg" {
		t.Fatalf("filename = %q", id.Filename)
	}
	if id.Hash != sha256Hex(data) {
		t.Fatalf("hash = %q, want content hash", id.Hash)
	}

	stored, err := backend.ReadAll(ctx, store.Key(id))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Fatalf("stored bytes differ")
	}
}

func TestWriteVariantKeepsCallerHash(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	original := []byte("original content")
	id, err := store.WriteFromBuffer(ctx, original, "img/cat.jpg", "", "", types.WriteConfig{})
	if err != nil {
		t.Fatalf("write original: %v", err)
	}

	thumb := []byte("thumbnail bytes")
	variantID, err := store.WriteFromBuffer(ctx, thumb, "img/cat.jpg", id.Hash, "thumb", types.WriteConfig{})
	if err != nil {
		t.Fatalf("write variant: %v", err)
	}

	// Variants share the original's hash, never the variant content's.
	if variantID.Hash != id.Hash {
		t.Fatalf("variant hash = %q, want original's %q", variantID.Hash, id.Hash)
	}
	if variantID.Variant != "thumb" {
		t.Fatalf("variant = %q", variantID.Variant)
	}

	key := store.Key(variantID)
	if StripVariant(key) != store.Key(id) {
		t.Fatalf("variant key %q does not share the original's base", key)
	}
}

func TestWriteVisibilityInheritance(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	original := []byte("original content")
	id, err := store.WriteFromBuffer(ctx, original, "img/cat.jpg", "", "", types.WriteConfig{
		Visibility: types.VisibilityProtected,
	})
	if err != nil {
		t.Fatalf("write original: %v", err)
	}

	variantID, err := store.WriteFromBuffer(ctx, []byte("thumb"), "img/cat.jpg", id.Hash, "thumb", types.WriteConfig{})
	if err != nil {
		t.Fatalf("write variant: %v", err)
	}

	visibility, err := backend.GetVisibility(ctx, store.Key(variantID))
	if err != nil {
		t.Fatalf("GetVisibility: %v", err)
	}
	if visibility != types.VisibilityProtected {
		t.Fatalf("variant visibility = %q, want protected", visibility)
	}
}

func TestWriteVisibilityDefaultsPublic(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	id, err := store.WriteFromBuffer(ctx, []byte("data"), "a.txt", "", "", types.WriteConfig{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	visibility, err := backend.GetVisibility(ctx, store.Key(id))
	if err != nil {
		t.Fatalf("GetVisibility: %v", err)
	}
	if visibility != types.VisibilityPublic {
		t.Fatalf("visibility = %q, want public", visibility)
	}
}

func TestWriteUseExistingRecomputesHash(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	data := []byte("stored content")
	if _, err := store.WriteFromBuffer(ctx, data, "a.txt", "", "", types.WriteConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	want := sha256Hex(data)

	// Write to the same derived key with a stale hash: the key only
	// depends on the first ten hash characters, so keep those stable.
	staleHash := want[:10] + "deadbeefdeadbeef"
	invoked := false
	writerFn := func(context.Context, storage.Backend, string, types.WriteConfig) error {
		invoked = true
		return nil
	}

	id, err := store.Write(ctx, writerFn, "a.txt", staleHash, "", types.WriteConfig{
		Conflict: types.ConflictUseExisting,
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if invoked {
		t.Fatalf("writer callback must not run under use-existing")
	}
	if id.Hash != want {
		t.Fatalf("hash = %q, want recomputed %q", id.Hash, want)
	}
}

func TestWriteUseExistingVariantKeepsHash(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	id, err := store.WriteFromBuffer(ctx, []byte("original"), "a.txt", "", "", types.WriteConfig{})
	if err != nil {
		t.Fatalf("seed original: %v", err)
	}
	if _, err := store.WriteFromBuffer(ctx, []byte("thumb"), "a.txt", id.Hash, "thumb", types.WriteConfig{}); err != nil {
		t.Fatalf("seed variant: %v", err)
	}

	invoked := false
	writerFn := func(context.Context, storage.Backend, string, types.WriteConfig) error {
		invoked = true
		return nil
	}
	got, err := store.Write(ctx, writerFn, "a.txt", id.Hash, "thumb", types.WriteConfig{
		Conflict: types.ConflictUseExisting,
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if invoked {
		t.Fatalf("writer callback must not run under use-existing")
	}
	if got.Hash != id.Hash {
		t.Fatalf("hash = %q, want caller's %q", got.Hash, id.Hash)
	}
}

func TestWriteRenameCapturedInIdentity(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	data := []byte("same key, different day")
	if _, err := store.WriteFromBuffer(ctx, data, "folder/pic.jpg", "", "", types.WriteConfig{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	id, err := store.WriteFromBuffer(ctx, data, "folder/pic.jpg", "", "", types.WriteConfig{
		Conflict: types.ConflictRename,
	})
	if err != nil {
		t.Fatalf("WriteFromBuffer: %v", err)
	}
	if id.Filename != "folder/pic-1.jpg" {
		t.Fatalf("filename = %q, want renamed %q", id.Filename, "folder/pic-1.jpg")
	}
}

func TestWriteFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	boom := errors.New("backend down")
	writerFn := func(context.Context, storage.Backend, string, types.WriteConfig) error {
		return boom
	}

	_, err := store.Write(ctx, writerFn, "a.txt", "abcdef1234", "", types.WriteConfig{})
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("err = %v, want ErrWriteFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped cause", err)
	}
}

func TestWriteFromLocalFile(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	data := []byte("file on disk")
	localPath := filepath.Join(t.TempDir(), "upload.bin")
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	id, err := store.WriteFromLocalFile(ctx, localPath, "uploads/file.bin", "", "", types.WriteConfig{})
	if err != nil {
		t.Fatalf("WriteFromLocalFile: %v", err)
	}
	if id.Hash != sha256Hex(data) {
		t.Fatalf("hash = %q, want content hash", id.Hash)
	}

	stored, err := store.ReadAll(ctx, id)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Fatalf("stored bytes differ")
	}
}

// nonSeeker hides the Seek method of an underlying reader.
type nonSeeker struct {
	r io.Reader
}

func (n nonSeeker) Read(p []byte) (int, error) { return n.r.Read(p) }

func TestWriteFromStream(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	data := []byte("streamed content")

	t.Run("seekable", func(t *testing.T) {
		id, err := store.WriteFromStream(ctx, bytes.NewReader(data), "s/seekable.bin", "", "", types.WriteConfig{})
		if err != nil {
			t.Fatalf("WriteFromStream: %v", err)
		}
		if id.Hash != sha256Hex(data) {
			t.Fatalf("hash = %q, want content hash", id.Hash)
		}
		stored, err := store.ReadAll(ctx, id)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !bytes.Equal(stored, data) {
			t.Fatalf("stored bytes differ")
		}
	})

	t.Run("mid-positioned stream hashes the remaining bytes", func(t *testing.T) {
		r := bytes.NewReader(data)
		if _, err := r.Seek(4, io.SeekStart); err != nil {
			t.Fatalf("Seek: %v", err)
		}
		remaining := data[4:]

		id, err := store.WriteFromStream(ctx, r, "s/tail.bin", "", "", types.WriteConfig{})
		if err != nil {
			t.Fatalf("WriteFromStream: %v", err)
		}
		if id.Hash != sha256Hex(remaining) {
			t.Fatalf("hash = %q, want hash of the unread tail", id.Hash)
		}
		stored, err := store.ReadAll(ctx, id)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !bytes.Equal(stored, remaining) {
			t.Fatalf("stored %q, want the unread tail %q", stored, remaining)
		}
	})

	t.Run("non-seekable buffers to temp file", func(t *testing.T) {
		id, err := store.WriteFromStream(ctx, nonSeeker{bytes.NewReader(data)}, "s/pipe.bin", "", "", types.WriteConfig{})
		if err != nil {
			t.Fatalf("WriteFromStream: %v", err)
		}
		if id.Hash != sha256Hex(data) {
			t.Fatalf("hash = %q, want content hash", id.Hash)
		}
		stored, err := store.ReadAll(ctx, id)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if !bytes.Equal(stored, data) {
			t.Fatalf("stored bytes differ")
		}
	})
}
