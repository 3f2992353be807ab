package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateSQLMigrationSortsAfterNewest(t *testing.T) {
	orig := nowUTC
	t.Cleanup(func() { nowUTC = orig })
	nowUTC = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260105120500_create_notifications.sql"), []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"), 0o644))

	path, err := CreateSQLMigration(dir, "add refund reason")
	require.NoError(t, err)
	require.Equal(t, "20260105120501_add_refund_reason.sql", filepath.Base(path))
}

func TestNextVersionRollsOverMinute(t *testing.T) {
	require.Equal(t, "20260105120600", nextVersion("20260105120559"))
}
