package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MediaAsset is an uploaded image referenced by appearance documents.
type MediaAsset struct {
	ID          int64
	TenantKey   string
	Category    string
	StoragePath string
	URL         string
	FileName    string
	SizeBytes   int64
	CreatedBy   string
	CreatedAt   time.Time
}

// MediaRepo registers uploads and hands out their numeric ids.
type MediaRepo struct {
	db *sql.DB
}

func NewMediaRepo(db *sql.DB) *MediaRepo {
	return &MediaRepo{db: db}
}

// Insert stores asset and returns its id.
func (r *MediaRepo) Insert(ctx context.Context, asset MediaAsset) (int64, error) {
	createdAt := asset.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO app_db_media_assets (tenant_key, category, storage_path, url, file_name, size_bytes, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		asset.TenantKey, asset.Category, asset.StoragePath, asset.URL, nullIfEmpty(asset.FileName), asset.SizeBytes, nullIfEmpty(asset.CreatedBy), createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert media asset: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read media asset id: %w", err)
	}
	return id, nil
}
