package main

import (
	"context"

	"github.com/persistorai/vchain/internal/config"
	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/store"
)

func storeOptions(c *config.Config) store.Options {
	return store.Options{
		Backend:     c.StoreBackend,
		DatabaseURL: c.DatabaseURL.Value(),
		MaxConns:    int32(c.DBMaxConns), //nolint:gosec // bounded to 1..100 by config validation.
		SQLitePath:  c.SQLitePath,
		DataDir:     c.DataDir,
		FallbackDir: c.FallbackDir,
	}
}

// openStore opens the configured edge store. Callers must Close it.
func openStore(ctx context.Context) domain.EdgeStore {
	s, err := store.Open(ctx, storeOptions(cfg), log)
	if err != nil {
		fatal("open store", err)
	}

	return s
}
