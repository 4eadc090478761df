package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UserRecord is an operator account.
type UserRecord struct {
	ID           int64
	Username     string
	DisplayName  string
	TenantKey    string
	Role         string
	Status       int
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// UserUpdate lists the fields to change; nil fields are kept.
type UserUpdate struct {
	DisplayName  *string
	TenantKey    *string
	Role         *string
	Status       *int
	PasswordHash *string
}

// UserRepo stores operator accounts.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = "id, username, display_name, tenant_key, role, status, password_hash, created_at, updated_at, last_login_at"

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM app_db_users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// FindByUsername returns nil when no such user exists.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM app_db_users WHERE username = ? LIMIT 1", username)
	return scanUser(row)
}

// FindByID returns nil when no such user exists.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*UserRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM app_db_users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

func (r *UserRepo) List(ctx context.Context) ([]UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM app_db_users ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]UserRecord, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// Create inserts a user and returns its id.
func (r *UserRepo) Create(ctx context.Context, user UserRecord) (int64, error) {
	now := time.Now()
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO app_db_users (username, display_name, tenant_key, role, status, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		user.Username, nullIfEmpty(user.DisplayName), user.TenantKey, user.Role, user.Status, nullIfEmpty(user.PasswordHash), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return result.LastInsertId()
}

// Update applies the non-nil fields of update.
// Returns:
//   bool: False when the user does not exist.
//   error: Write error.
func (r *UserRepo) Update(ctx context.Context, id int64, update UserUpdate) (bool, error) {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if update.DisplayName != nil {
		add("display_name", nullIfEmpty(*update.DisplayName))
	}
	if update.TenantKey != nil {
		add("tenant_key", *update.TenantKey)
	}
	if update.Role != nil {
		add("role", *update.Role)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.PasswordHash != nil {
		add("password_hash", *update.PasswordHash)
	}
	if len(sets) == 0 {
		return false, errors.New("empty update")
	}
	add("updated_at", time.Now())
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, "UPDATE app_db_users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (r *UserRepo) TouchLogin(ctx context.Context, id int64) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, "UPDATE app_db_users SET last_login_at = ?, updated_at = ? WHERE id = ?", now, now, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*UserRecord, error) {
	var (
		user         UserRecord
		displayName  sql.NullString
		role         sql.NullString
		passwordHash sql.NullString
		lastLoginAt  sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Username, &displayName, &user.TenantKey, &role, &user.Status, &passwordHash, &user.CreatedAt, &user.UpdatedAt, &lastLoginAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.DisplayName = displayName.String
	user.Role = strings.ToLower(strings.TrimSpace(role.String))
	if user.Role == "" {
		user.Role = "user"
	}
	user.PasswordHash = passwordHash.String
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		user.LastLoginAt = &t
	}
	return &user, nil
}
