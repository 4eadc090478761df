package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const migrationsTable = "app_db_schema_migrations"

// ApplyMigrations runs every .sql file of the migrations directory once, in
// name order. Applied file names are recorded in app_db_schema_migrations.
// Args:
//   ctx: Startup context.
//   db: Database connection.
//   logger: Logger instance.
// Returns:
//   error: Error when a migration fails.
func ApplyMigrations(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	dir, err := discoverMigrationsDir()
	if err != nil {
		return err
	}
	files, err := listMigrationFiles(dir)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+migrationsTable+
		" (name VARCHAR(191) NOT NULL PRIMARY KEY, applied_at DATETIME NOT NULL)"); err != nil {
		return fmt.Errorf("create migrations table failed: %w", err)
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, name := range files {
		if applied[name] {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s failed: %w", name, err)
		}
		for _, stmt := range splitSQLStatements(string(raw)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s failed: %w", name, err)
			}
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO "+migrationsTable+" (name, applied_at) VALUES (?, ?)", name, time.Now()); err != nil {
			return fmt.Errorf("record migration %s failed: %w", name, err)
		}
		logger.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM "+migrationsTable)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations failed: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func listMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func discoverMigrationsDir() (string, error) {
	candidates := []string{
		"migrations",
		filepath.Join("..", "migrations"),
		filepath.Join("..", "..", "migrations"),
	}
	if dir := strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")); dir != "" {
		candidates = append([]string{dir}, candidates...)
	}
	for _, dir := range candidates {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		return dir, nil
	}
	return "", fmt.Errorf("migrations directory not found")
}

// splitSQLStatements splits a script on ';' and drops blank or comment-only parts.
func splitSQLStatements(content string) []string {
	cleaned := strings.ReplaceAll(content, "\r\n", "\n")
	parts := strings.Split(cleaned, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if isCommentOnly(part) {
			continue
		}
		statements = append(statements, strings.TrimSpace(part))
	}
	return statements
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		return false
	}
	return true
}
