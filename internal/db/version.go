package db

import (
	"io/fs"

	"github.com/persistorai/vchain/internal/db/migrations"
)

// SchemaVersion returns the number of PostgreSQL migration files, which
// equals the current schema version. It is reported by the health endpoint.
func SchemaVersion() int {
	return countFiles(migrations.Postgres())
}

func countFiles(fsys fs.FS) int {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}

	return count
}
