package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Direction selects which migration files run and in what order.
type Direction string

const (
	MigrateUp   Direction = "up"
	MigrateDown Direction = "down"
)

// Migrate applies every *.<direction>.sql file in dir against db, in lexical
// order for up and reverse lexical order for down. Returns the number of
// files applied; on error, files before the failing one have already run.
func Migrate(db *sql.DB, dir string, direction Direction) (int, error) {
	names, err := migrationFiles(dir, direction)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, name := range names {
		stmts, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(stmts)); err != nil {
			return applied, fmt.Errorf("execute migration %s: %w", name, err)
		}
		applied++
	}
	return applied, nil
}

func migrationFiles(dir string, direction Direction) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	suffix := "." + string(direction) + ".sql"
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}

	if direction == MigrateDown {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	} else {
		sort.Strings(names)
	}
	return names, nil
}
