package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLStatements(t *testing.T) {
	script := "-- users\r\nCREATE TABLE a (id INT);\n\n-- trailing comment\nCREATE TABLE b (id INT);\n-- end\n"
	statements := splitSQLStatements(script)
	require.Len(t, statements, 2)
	assert.Equal(t, "-- users\nCREATE TABLE a (id INT)", statements[0])
	assert.Equal(t, "-- trailing comment\nCREATE TABLE b (id INT)", statements[1])
}

func TestListMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_more.sql", "001_init.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0755))

	files, err := listMigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_more.sql"}, files)
}

func TestDiscoverMigrationsDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIGRATIONS_DIR", dir)
	found, err := discoverMigrationsDir()
	require.NoError(t, err)
	assert.Equal(t, dir, found)
}

func TestRepositoryMigrationParses(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	statements := splitSQLStatements(string(raw))
	assert.Len(t, statements, 4)
	for _, stmt := range statements {
		assert.Contains(t, stmt, "CREATE TABLE IF NOT EXISTS")
	}
}
