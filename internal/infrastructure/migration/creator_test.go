package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add stores table", "add_stores_table"},
		{"Add-Stores-Table", "add_stores_table"},
		{"ADD__STORES__TABLE", "add_stores_table"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add stores")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_stores.up.sql"), first.UpPath)

	second, err := CreateMigration(dir, "Index details by status")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	for _, p := range []string{second.UpPath, second.DownPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		files, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("embedded schema pairs up and down", func(t *testing.T) {
		files, err := ListMigrations(EmbeddedDir)
		require.NoError(t, err)
		require.NotEmpty(t, files)
		assert.Equal(t, 1, files[0].Version)
		assert.Equal(t, "catalog_sync", files[0].Name)
		assert.NotEmpty(t, files[0].UpPath)
		assert.NotEmpty(t, files[0].DownPath)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000003_x.up.sql"), nil, 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000002_y.up.sql"), nil, 0o644))

		files, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, 2, files[0].Version)
		assert.Empty(t, files[0].DownPath)
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	up, err := embedded.ReadFile("sql/000001_catalog_sync.up.sql")
	require.NoError(t, err)
	for _, table := range []string{"stores", "sync_accounts", "sync_history_summaries", "sync_history_chunks", "sync_history_details"} {
		assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS "+table)
	}
}
