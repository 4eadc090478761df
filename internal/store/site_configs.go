package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document scopes.
const (
	ScopeTenant = "tenant"
	ScopeGlobal = "global"
)

// SiteConfigRecord is one stored appearance document.
type SiteConfigRecord struct {
	ConfigID  string
	Scope     string
	TenantKey string
	Document  []byte
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SiteConfigRepo persists appearance documents, one row per (scope, tenant).
type SiteConfigRepo struct {
	db *sql.DB
}

func NewSiteConfigRepo(db *sql.DB) *SiteConfigRepo {
	return &SiteConfigRepo{db: db}
}

// Get loads the document of a scope and tenant.
// Returns:
//   *SiteConfigRecord: Stored row, nil when none exists.
//   error: Query error.
func (r *SiteConfigRepo) Get(ctx context.Context, scope, tenantKey string) (*SiteConfigRecord, error) {
	var (
		record    SiteConfigRecord
		updatedBy sql.NullString
	)
	row := r.db.QueryRowContext(ctx,
		"SELECT config_id, scope, tenant_key, document, updated_by, created_at, updated_at FROM app_db_site_configs WHERE scope = ? AND tenant_key = ? LIMIT 1",
		scope, tenantKey,
	)
	err := row.Scan(&record.ConfigID, &record.Scope, &record.TenantKey, &record.Document, &updatedBy, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query site config: %w", err)
	}
	record.UpdatedBy = updatedBy.String
	return &record, nil
}

// Upsert writes the document of a scope and tenant. A second write overwrites
// the row; the config id assigned on first insert never changes.
// Returns:
//   string: Config id of the row.
//   error: Write error.
func (r *SiteConfigRepo) Upsert(ctx context.Context, scope, tenantKey string, document []byte, updatedBy string) (string, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO app_db_site_configs (config_id, scope, tenant_key, document, updated_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE document = VALUES(document), updated_by = VALUES(updated_by), updated_at = VALUES(updated_at)",
		uuid.NewString(), scope, tenantKey, document, nullIfEmpty(updatedBy), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("upsert site config: %w", err)
	}

	var configID string
	if err := r.db.QueryRowContext(ctx,
		"SELECT config_id FROM app_db_site_configs WHERE scope = ? AND tenant_key = ? LIMIT 1",
		scope, tenantKey,
	).Scan(&configID); err != nil {
		return "", fmt.Errorf("read config id: %w", err)
	}
	return configID, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
