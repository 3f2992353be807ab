package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

const (
	gooseUp   = "-- +goose Up"
	gooseDown = "-- +goose Down"
)

type migrationFile struct {
	version string
	slug    string
	name    string
}

// ValidateDir checks every .sql file under dir. All problems are reported
// together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks file names, version uniqueness and goose annotations.
// An Up section with no statement is rejected.
func ValidateFS(fsys fs.FS) error {
	files, err := listMigrations(fsys)
	if err != nil {
		return err
	}

	var errs error
	seen := map[string]string{}
	for _, f := range files {
		if f.version == "" {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", f.name))
			continue
		}
		if prev, ok := seen[f.version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", f.version, prev, f.name))
		}
		seen[f.version] = f.name

		b, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read file %q: %w", f.name, err))
			continue
		}
		errs = multierr.Append(errs, checkAnnotations(f.name, string(b)))
	}
	return errs
}

func checkAnnotations(name, txt string) error {
	up := strings.Index(txt, gooseUp)
	down := strings.Index(txt, gooseDown)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", name, gooseUp)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", name, gooseDown)
	case down < up:
		return fmt.Errorf("migration %q has Down before Up", name)
	}
	if !hasStatement(txt[up+len(gooseUp) : down]) {
		return fmt.Errorf("migration %q has an empty Up section", name)
	}
	return nil
}

func hasStatement(section string) bool {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}

func listMigrations(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		f := migrationFile{name: e.Name()}
		if m := sqlFileRe.FindStringSubmatch(e.Name()); m != nil {
			f.version, f.slug = m[1], m[2]
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}
