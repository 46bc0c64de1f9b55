package migrate

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

// migrationName is "<14 digit timestamp>_<snake_case>.sql".
var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Validate lints the embedded migrations.
func Validate() error {
	return ValidateFS(embedded, Dir)
}

// ValidateFS lints every .sql file in dir and reports all problems at once:
// bad names, reused versions, missing Up or Down sections and unbalanced
// StatementBegin/StatementEnd pairs. A directory without migrations fails.
func ValidateFS(fsys fs.FS, dir string) error {
	if dir == "" {
		return fmt.Errorf("migrate: dir is required")
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("migrate: list %s: %w", dir, err)
	}

	var problems error
	versions := map[string]string{}
	found := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		found++

		match := migrationName.FindStringSubmatch(name)
		if match == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: name must look like 20060102150405_describe_change.sql", name))
			continue
		}
		if other, dup := versions[match[1]]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, match[1], other))
		}
		versions[match[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		problems = multierr.Append(problems, lintAnnotations(name, body))
	}
	if found == 0 {
		return fmt.Errorf("migrate: no .sql files in %s", dir)
	}
	return problems
}

func lintAnnotations(name string, body []byte) error {
	var (
		problems      error
		up, down      bool
		openStatement bool
	)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "-- +goose ") {
			continue
		}
		switch strings.Fields(strings.TrimPrefix(line, "-- +goose "))[0] {
		case "Up":
			up = true
		case "Down":
			down = true
		case "StatementBegin":
			if openStatement {
				problems = multierr.Append(problems, fmt.Errorf("%s: nested StatementBegin", name))
			}
			openStatement = true
		case "StatementEnd":
			if !openStatement {
				problems = multierr.Append(problems, fmt.Errorf("%s: StatementEnd without StatementBegin", name))
			}
			openStatement = false
		}
	}
	if !up {
		problems = multierr.Append(problems, fmt.Errorf("%s: missing -- +goose Up", name))
	}
	if !down {
		problems = multierr.Append(problems, fmt.Errorf("%s: missing -- +goose Down", name))
	}
	if openStatement {
		problems = multierr.Append(problems, fmt.Errorf("%s: StatementBegin never closed", name))
	}
	return problems
}
