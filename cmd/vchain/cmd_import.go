package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/config"
	"github.com/persistorai/vchain/internal/store"
)

func newImportCmd() *cobra.Command {
	var from config.Config

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a collection from another store into the configured one",
		Long: "Copy edges and bad identifiers from a source store. Parents and bad\n" +
			"identifiers already present in the destination are skipped, so the\n" +
			"import can be re-run. Typical use: load a directory of JSON reports\n" +
			"and bad_ticker CSV files into Postgres.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts := store.Options{
				Backend:     from.StoreBackend,
				DatabaseURL: from.DatabaseURL.Value(),
				MaxConns:    2,
				SQLitePath:  from.SQLitePath,
				DataDir:     from.DataDir,
			}

			if opts.Backend == cfg.StoreBackend && opts.Backend == store.BackendFile && opts.DataDir == cfg.DataDir {
				fatal("import", fmt.Errorf("source and destination are the same directory %q", opts.DataDir))
			}

			ctx := context.Background()

			src, err := store.Open(ctx, opts, log)
			if err != nil {
				fatal("open source store", err)
			}
			defer src.Close() //nolint:errcheck // read-only use.

			dst := openStore(ctx)
			defer dst.Close() //nolint:errcheck // process is exiting.

			r, err := store.Copy(ctx, src, dst, cfg.Collection)
			if err != nil {
				fatal("import", err)
			}

			output(r,
				[]string{"COLLECTION", "PARENTS", "COPIED", "SKIPPED", "EDGES", "BAD COPIED"},
				[][]string{{
					r.Collection,
					strconv.Itoa(r.ParentsRead),
					strconv.Itoa(r.ParentsCopied),
					strconv.Itoa(r.ParentsSkipped),
					strconv.Itoa(r.EdgesCopied),
					strconv.Itoa(r.BadCopied),
				}},
				[]string{r.Collection},
			)
		},
	}

	cmd.Flags().StringVar(&from.StoreBackend, "from", store.BackendFile, "Source backend: postgres|sqlite|file")
	cmd.Flags().StringVar(&from.DataDir, "from-dir", "data", "Source directory for the file backend")
	cmd.Flags().StringVar(&from.SQLitePath, "from-sqlite", "", "Source database for the sqlite backend")
	cmd.Flags().Var((*secretFlag)(&from.DatabaseURL), "from-url", "Source Postgres URL")

	return cmd
}

// secretFlag lets a config.Secret be set from a flag without echoing it in help output.
type secretFlag config.Secret

func (s *secretFlag) String() string {
	if *s == "" {
		return ""
	}
	return config.Secret(*s).String()
}

func (s *secretFlag) Set(v string) error {
	*s = secretFlag(v)
	return nil
}

func (s *secretFlag) Type() string { return "url" }
