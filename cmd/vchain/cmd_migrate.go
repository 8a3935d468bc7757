package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/db"
	"github.com/persistorai/vchain/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured store",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			if cfg.StoreBackend == store.BackendFile {
				fmt.Fprintln(stdout, "file backend has no schema")
				return
			}

			opts := storeOptions(cfg)
			opts.FallbackDir = "" // migrating must not silently land on files

			s, err := store.Open(ctx, opts, log)
			if err != nil {
				fatal("migrate", err)
			}
			defer s.Close() //nolint:errcheck // process is exiting.

			version := db.SchemaVersion()
			output(map[string]any{"backend": cfg.StoreBackend, "schema_version": version},
				[]string{"BACKEND", "SCHEMA VERSION"},
				[][]string{{cfg.StoreBackend, strconv.Itoa(version)}},
				[]string{strconv.Itoa(version)},
			)
		},
	}
}
