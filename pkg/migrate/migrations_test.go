package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration file found for %s", suffix)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "create_users_and_products")
	assert.Contains(t, content, "CONSTRAINT chk_products_stock_non_negative CHECK (stock >= 0)")
	assert.Contains(t, content, "DROP TABLE IF EXISTS products")
}

func TestUniquenessInvariantsAreStorageEnforced(t *testing.T) {
	checks := map[string]string{
		"create_carts":         "CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_id ON carts (user_id)",
		"create_orders":        "CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_identifier ON orders (order_identifier)",
		"create_refunds":       "CREATE UNIQUE INDEX IF NOT EXISTS ux_refunds_order_id ON refunds (order_id)",
		"create_notifications": "CREATE UNIQUE INDEX IF NOT EXISTS ux_notifications_event_type ON notifications (event_id, type)",
	}
	for suffix, stmt := range checks {
		content := readMigration(t, suffix)
		if !strings.Contains(content, stmt) {
			t.Errorf("%s: missing expected statement %q", suffix, stmt)
		}
	}
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_order_notes.sql"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "-- +goose Down")

	require.NoError(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301000000_empty_up.sql"), []byte("-- +goose Up\n-- nothing\n-- +goose Down\nSELECT 1;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301000100_no_down.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.ErrorContains(t, err, "empty Up section")
	assert.ErrorContains(t, err, "missing \"-- +goose Down\"")
}

func TestCreateSQLMigrationRejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	_, err := migrate.CreateSQLMigration(dir, "add_order_notes")
	require.NoError(t, err)
	_, err = migrate.CreateSQLMigration(dir, "Add order notes")
	require.ErrorContains(t, err, "already exists")
}
