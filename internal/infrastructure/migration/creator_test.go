package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Create Invoices Table", "Invoices with embedded payment lines")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14, "version is a YYYYMMDDHHMMSS timestamp")
	assert.Equal(t, filepath.Join(dir, mf.Version+"_create_invoices_table.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, mf.Version+"_create_invoices_table.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Migration: Create Invoices Table")
	assert.Contains(t, string(up), "Description: Invoices with embedded payment lines")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
	assert.Contains(t, string(down), "Rollback for Invoices with embedded payment lines")
}

func TestCreateMigration_MakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	_, err := CreateMigration(dir, "create_journal_entries_table", "")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"create_invoices_table", "create_invoices_table"},
		{"Create Invoices Table", "create_invoices_table"},
		{"add--credit   notes", "add_credit_notes"},
		{"add balance_due index!", "add_balance_due_index"},
		{"_trailing separators_ ", "trailing_separators"},
		{"v2 schema", "v2_schema"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.name), "input: %q", tt.name)
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create_invoices_table", "")
	require.NoError(t, err)

	// A stray file and a subdirectory must not show up in the listing
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.True(t, strings.HasSuffix(migrations[0], "_create_invoices_table"))
	assert.Equal(t, first.Version+"_create_invoices_table", migrations[0])
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
