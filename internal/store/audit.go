package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AuditEntry records one write to a tenant's appearance document.
type AuditEntry struct {
	ID        int64     `json:"id"`
	TenantKey string    `json:"tenant_key"`
	Action    string    `json:"action"`
	ConfigID  string    `json:"config_id"`
	Actor     string    `json:"actor"`
	RequestID string    `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditRepo stores the site config audit trail.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert appends an entry.
func (r *AuditRepo) Insert(ctx context.Context, entry AuditEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO app_db_site_config_audit (tenant_key, action, config_id, actor, request_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		entry.TenantKey, entry.Action, nullIfEmpty(entry.ConfigID), nullIfEmpty(entry.Actor), nullIfEmpty(entry.RequestID), createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns a tenant's entries, newest first.
// Args:
//   ctx: Request context.
//   tenantKey: Tenant key.
//   limit: Page size.
//   offset: Rows to skip.
// Returns:
//   []AuditEntry: Page of entries.
//   int64: Total entries of the tenant.
//   error: Query error.
func (r *AuditRepo) List(ctx context.Context, tenantKey string, limit, offset int) ([]AuditEntry, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM app_db_site_config_audit WHERE tenant_key = ?", tenantKey).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, tenant_key, action, config_id, actor, request_id, created_at FROM app_db_site_config_audit WHERE tenant_key = ? ORDER BY id DESC LIMIT ? OFFSET ?",
		tenantKey, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var entry AuditEntry
		var configID, actor, requestID sql.NullString
		if err := rows.Scan(&entry.ID, &entry.TenantKey, &entry.Action, &configID, &actor, &requestID, &entry.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ConfigID = configID.String
		entry.Actor = actor.String
		entry.RequestID = requestID.String
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}
