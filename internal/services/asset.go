package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/hashvault/assetstore/internal/assetstore"
	"github.com/hashvault/assetstore/internal/events"
	"github.com/hashvault/assetstore/internal/store"
	"github.com/hashvault/assetstore/types"
)

// AssetCatalog defines persistence operations for the asset catalog.
type AssetCatalog interface {
	List(ctx context.Context, offset, limit int) ([]types.AssetRecord, int, error)
	Get(ctx context.Context, filename, hash string) (types.AssetRecord, error)
	Upsert(ctx context.Context, record types.AssetRecord) (types.AssetRecord, error)
	SetVisibility(ctx context.Context, filename, hash string, visibility types.Visibility) error
	Delete(ctx context.Context, filename, hash string) error
}

// EventPublisher emits asset change events for downstream workers.
type EventPublisher interface {
	Publish(ctx context.Context, event events.AssetEvent) (string, error)
}

// AssetService composes the asset store with catalog bookkeeping and
// event publication. The object store stays the source of truth; the
// catalog and events are best-effort and never fail a completed write.
type AssetService struct {
	store     *assetstore.Store
	catalog   AssetCatalog
	publisher EventPublisher
	logger    *slog.Logger
}

func NewAssetService(assets *assetstore.Store, catalog AssetCatalog, publisher EventPublisher, logger *slog.Logger) *AssetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetService{
		store:     assets,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// Upload stores content from a stream and records the result.
func (s *AssetService) Upload(ctx context.Context, r io.Reader, filename, hash, variant string, cfg types.WriteConfig) (types.FileIdentity, error) {
	id, err := s.store.WriteFromStream(ctx, r, filename, hash, variant, cfg)
	if err != nil {
		return types.FileIdentity{}, err
	}
	s.recordWrite(ctx, id)
	return id, nil
}

// UploadBuffer stores an in-memory payload and records the result.
func (s *AssetService) UploadBuffer(ctx context.Context, data []byte, filename, hash, variant string, cfg types.WriteConfig) (types.FileIdentity, error) {
	id, err := s.store.WriteFromBuffer(ctx, data, filename, hash, variant, cfg)
	if err != nil {
		return types.FileIdentity{}, err
	}
	s.recordWrite(ctx, id)
	return id, nil
}

// Download opens a reader over the stored object.
func (s *AssetService) Download(ctx context.Context, id types.FileIdentity) (io.ReadCloser, types.ObjectInfo, error) {
	info, err := s.store.Stat(ctx, id)
	if err != nil {
		return nil, types.ObjectInfo{}, err
	}
	r, err := s.store.ReadStream(ctx, id)
	if err != nil {
		return nil, types.ObjectInfo{}, err
	}
	return r, info, nil
}

// List pages through the asset catalog.
func (s *AssetService) List(ctx context.Context, offset, limit int) ([]types.AssetRecord, int, error) {
	if s.catalog == nil {
		return nil, 0, errors.New("asset catalog is not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.catalog.List(ctx, offset, limit)
}

// Stat returns backend metadata for an identity.
func (s *AssetService) Stat(ctx context.Context, id types.FileIdentity) (types.ObjectInfo, error) {
	return s.store.Stat(ctx, id)
}

// URL returns the public or signed URL of an identity.
func (s *AssetService) URL(ctx context.Context, id types.FileIdentity) (string, error) {
	return s.store.URL(ctx, id)
}

// Variants enumerates all stored keys of a logical file.
func (s *AssetService) Variants(ctx context.Context, id types.FileIdentity) ([]string, error) {
	original := types.FileIdentity{Filename: id.Filename, Hash: id.Hash}
	var keys []string
	for key, err := range s.store.FindVariants(ctx, s.store.Key(original)) {
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// SetVisibility publishes or protects an identity, keeps the catalog in
// step, and emits a visibility event.
func (s *AssetService) SetVisibility(ctx context.Context, id types.FileIdentity, visibility types.Visibility) error {
	var err error
	if visibility == types.VisibilityPublic {
		err = s.store.Publish(ctx, id)
	} else {
		err = s.store.Protect(ctx, id)
	}
	if err != nil {
		return err
	}

	if s.catalog != nil && id.Variant == "" {
		if err := s.catalog.SetVisibility(ctx, id.Filename, id.Hash, visibility); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("catalog visibility update failed", "filename", id.Filename, "error", err)
		}
	}
	s.publish(ctx, events.AssetEvent{Type: events.TypeVisibility, Identity: id, Visibility: visibility})
	return nil
}

// Delete removes a logical file with all its variants, then cleans up
// the catalog row and emits a deletion event.
func (s *AssetService) Delete(ctx context.Context, filename, hash string) (bool, error) {
	deleted, err := s.store.Delete(ctx, filename, hash)
	if err != nil {
		return deleted, err
	}
	if !deleted {
		return false, nil
	}

	if s.catalog != nil {
		if err := s.catalog.Delete(ctx, assetstore.CleanFilename(filename), hash); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("catalog delete failed", "filename", filename, "error", err)
		}
	}
	s.publish(ctx, events.AssetEvent{
		Type:     events.TypeDeleted,
		Identity: types.FileIdentity{Filename: assetstore.CleanFilename(filename), Hash: hash},
	})
	return true, nil
}

func (s *AssetService) recordWrite(ctx context.Context, id types.FileIdentity) {
	visibility, err := s.store.GetVisibility(ctx, id)
	if err != nil {
		s.logger.Warn("visibility lookup after write failed", "filename", id.Filename, "error", err)
		visibility = types.VisibilityPublic
	}

	if s.catalog != nil && id.Variant == "" {
		info, err := s.store.Stat(ctx, id)
		if err != nil {
			s.logger.Warn("stat after write failed", "filename", id.Filename, "error", err)
		}
		record := types.AssetRecord{
			Filename:    id.Filename,
			Hash:        id.Hash,
			Visibility:  visibility,
			Size:        info.Size,
			ContentType: info.ContentType,
		}
		if _, err := s.catalog.Upsert(ctx, record); err != nil {
			s.logger.Warn("catalog upsert failed", "filename", id.Filename, "error", err)
		}
	}

	s.publish(ctx, events.AssetEvent{Type: events.TypeWritten, Identity: id, Visibility: visibility})
}

func (s *AssetService) publish(ctx context.Context, event events.AssetEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "type", event.Type, "filename", event.Identity.Filename, "error", err)
	}
}
