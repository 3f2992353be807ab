package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

var nowUTC = func() time.Time { return time.Now().UTC() }

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
SELECT 'up: %[1]s';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down: %[1]s';
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<slug>.sql. The version is the
// current UTC second, pushed past the newest existing migration so files
// always sort after what is already there. A slug can only be used once.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	existing, err := listMigrations(os.DirFS(dir))
	if err != nil {
		return "", err
	}
	version := nowUTC().Format(versionLayout)
	for _, f := range existing {
		if f.slug == slug {
			return "", fmt.Errorf("migration %q already exists as %s", slug, f.name)
		}
		if f.version >= version {
			version = nextVersion(f.version)
		}
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, slug))
	if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(migrationTemplate, slug)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func migrationSlug(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

func nextVersion(version string) string {
	t, err := time.Parse(versionLayout, version)
	if err != nil {
		n, _ := strconv.ParseInt(version, 10, 64)
		return strconv.FormatInt(n+1, 10)
	}
	return t.Add(time.Second).Format(versionLayout)
}
