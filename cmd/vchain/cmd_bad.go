package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/models"
)

func newBadCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "bad",
		Short: "List identifiers recorded as bad",
		Run: func(cmd *cobra.Command, args []string) {
			var want models.Reason
			if reason != "" {
				r, err := models.ParseReason(reason)
				if err != nil {
					fatal("reason", err)
				}
				want = r
			}

			ctx := context.Background()
			s := openStore(ctx)
			defer s.Close() //nolint:errcheck // read-only use.

			records, err := s.LoadBad(ctx, cfg.Collection)
			if err != nil {
				fatal("load bad identifiers", err)
			}

			out := make([]models.BadIdentifier, 0, len(records))
			var rows [][]string
			var ids []string
			for _, b := range records {
				if want != "" && b.Reason != want {
					continue
				}
				out = append(out, b)
				ids = append(ids, b.Identifier)
				rows = append(rows, []string{b.Identifier, b.CompanyName, string(b.Reason), b.RecordedAt.Format("2006-01-02")})
			}

			output(out, []string{"IDENTIFIER", "COMPANY", "REASON", "RECORDED"}, rows, ids)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Only list this reason (no_results|search_failure|download_failure)")

	return cmd
}
