// Package db applies the embedded goose migrations for the SQL-backed stores.
//
// Postgres and SQLite keep separate migration trees with the same version
// numbers, so SchemaVersion describes either backend.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/db/migrations"
	"github.com/persistorai/vchain/internal/dbpool"
)

// RunMigrations applies all pending PostgreSQL migrations.
func RunMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger) error {
	sqlDB := pool.SQLDB()
	defer sqlDB.Close()

	return apply(ctx, goose.DialectPostgres, sqlDB, migrations.Postgres(), log)
}

// RunSQLiteMigrations applies all pending SQLite migrations to an open database.
func RunSQLiteMigrations(ctx context.Context, sqlDB *sql.DB, log *logrus.Logger) error {
	return apply(ctx, goose.DialectSQLite3, sqlDB, migrations.SQLite(), log)
}

func apply(ctx context.Context, dialect goose.Dialect, sqlDB *sql.DB, fsys fs.FS, log *logrus.Logger) error {
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}

		log.WithFields(logrus.Fields{
			"dialect":  dialect,
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.WithField("dialect", dialect).Debug("all migrations already applied")
	}

	return nil
}
