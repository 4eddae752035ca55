package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hashvault/assetstore/types"
)

// AssetRepository handles persistence for the asset catalog.
type AssetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) List(ctx context.Context, offset, limit int) ([]types.AssetRecord, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM assets`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, filename, hash, visibility, size, content_type, created_at, updated_at
		FROM assets
		ORDER BY id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]types.AssetRecord, 0, limit)
	for rows.Next() {
		var record types.AssetRecord
		if err := rows.Scan(
			&record.ID,
			&record.Filename,
			&record.Hash,
			&record.Visibility,
			&record.Size,
			&record.ContentType,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *AssetRepository) Get(ctx context.Context, filename, hash string) (types.AssetRecord, error) {
	const query = `
		SELECT id, filename, hash, visibility, size, content_type, created_at, updated_at
		FROM assets
		WHERE filename = $1 AND hash = $2`
	var record types.AssetRecord
	err := r.db.QueryRowContext(ctx, query, filename, hash).Scan(
		&record.ID,
		&record.Filename,
		&record.Hash,
		&record.Visibility,
		&record.Size,
		&record.ContentType,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.AssetRecord{}, ErrNotFound
	}
	if err != nil {
		return types.AssetRecord{}, err
	}
	return record, nil
}

// Upsert inserts or refreshes the catalog row of a logical file.
func (r *AssetRepository) Upsert(ctx context.Context, record types.AssetRecord) (types.AssetRecord, error) {
	const query = `
		INSERT INTO assets (filename, hash, visibility, size, content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (filename, hash) DO UPDATE
		SET visibility = EXCLUDED.visibility,
		    size = EXCLUDED.size,
		    content_type = EXCLUDED.content_type,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		record.Filename,
		record.Hash,
		record.Visibility,
		record.Size,
		record.ContentType,
		now,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return types.AssetRecord{}, err
	}
	return record, nil
}

// SetVisibility updates the cataloged visibility of a logical file.
func (r *AssetRepository) SetVisibility(ctx context.Context, filename, hash string, visibility types.Visibility) error {
	const query = `
		UPDATE assets
		SET visibility = $3, updated_at = now()
		WHERE filename = $1 AND hash = $2`
	result, err := r.db.ExecContext(ctx, query, filename, hash, visibility)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AssetRepository) Delete(ctx context.Context, filename, hash string) error {
	const query = `DELETE FROM assets WHERE filename = $1 AND hash = $2`
	result, err := r.db.ExecContext(ctx, query, filename, hash)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
