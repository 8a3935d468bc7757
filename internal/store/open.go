package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/db"
	"github.com/persistorai/vchain/internal/dbpool"
	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/models"
)

// Backend names accepted by Open.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DatabaseURL string
	MaxConns    int32
	SQLitePath  string
	DataDir     string
	// FallbackDir, when set, is used as a FileStore if Postgres is unavailable.
	FallbackDir string
	// SkipMigrations leaves the Postgres schema untouched on open.
	SkipMigrations bool
}

// Open returns the configured EdgeStore.
func Open(ctx context.Context, opts Options, log *logrus.Logger) (domain.EdgeStore, error) {
	switch opts.Backend {
	case BackendPostgres, "":
		s, err := OpenPostgres(ctx, opts, log)
		if err == nil {
			return s, nil
		}

		if opts.FallbackDir == "" || !errors.Is(err, models.ErrStoreUnavailable) {
			return nil, err
		}

		log.WithError(err).WithField("dir", opts.FallbackDir).Warn("postgres unavailable, falling back to file store")

		return OpenFileStore(opts.FallbackDir, log)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.SQLitePath, log)
	case BackendFile:
		return OpenFileStore(opts.DataDir, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// OpenPostgres connects to Postgres and applies pending migrations.
func OpenPostgres(ctx context.Context, opts Options, log *logrus.Logger) (*PGStore, error) {
	pool, err := dbpool.NewPool(ctx, opts.DatabaseURL, dbpool.Options{MaxConns: opts.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", classify(err))
	}

	if !opts.SkipMigrations {
		if err := db.RunMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
	}

	return NewPGStore(Base{Pool: pool, Log: log}), nil
}
