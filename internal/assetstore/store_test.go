package assetstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hashvault/assetstore/types"
)

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("err = %v, want ErrMisconfigured", err)
	}
}

func TestURLDispatchesOnVisibility(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	id, err := store.WriteFromBuffer(ctx, []byte("data"), "a.txt", "", "", types.WriteConfig{})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	publicURL, err := store.URL(ctx, id)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if strings.Contains(publicURL, "expires=") {
		t.Fatalf("public object got a signed URL: %q", publicURL)
	}

	if err := store.Protect(ctx, id); err != nil {
		t.Fatalf("Protect: %v", err)
	}
	signedURL, err := store.URL(ctx, id)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.Contains(signedURL, "expires=") {
		t.Fatalf("protected object got an unsigned URL: %q", signedURL)
	}

	if err := store.Publish(ctx, id); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	visibility, err := store.GetVisibility(ctx, id)
	if err != nil {
		t.Fatalf("GetVisibility: %v", err)
	}
	if visibility != types.VisibilityPublic {
		t.Fatalf("visibility = %q, want public", visibility)
	}
}

func TestReadAbsentKeyReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	id := types.FileIdentity{Filename: "ghost.txt", Hash: "abcdef1234567890"}
	if _, err := store.ReadAll(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadAll: err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetVisibility(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetVisibility: err = %v, want ErrNotFound", err)
	}
	if _, err := store.Stat(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Stat: err = %v, want ErrNotFound", err)
	}
}

func TestAccessControlIsDelegated(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	id := types.FileIdentity{Filename: "a.txt", Hash: "abcdef1234567890"}
	if err := store.Grant(ctx, id, "someone"); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if err := store.Revoke(ctx, id, "someone"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !store.CanView(ctx, id, "anyone") {
		t.Fatalf("CanView must always report true")
	}
}
