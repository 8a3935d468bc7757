package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/fetch"
	"github.com/persistorai/vchain/internal/models"
	"github.com/persistorai/vchain/internal/service"
)

func newCrawlCmd() *cobra.Command {
	var rf runFlags
	var fetchCmd string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Fetch reports for the frontier and merge them into the store",
		Long: "Compute the frontier from the seeds, fetch every planned identifier through\n" +
			"FETCH_COMMAND and merge the extracts, recomputing the plan between passes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rf.resolve(cmd)
			if err != nil {
				return err
			}

			if fetchCmd == "" {
				fetchCmd = cfg.FetchCommand
			}
			fetcher, err := fetch.NewExecFetcher(fetchCmd, cfg.Collection, cfg.FetchTimeout, log)
			if err != nil {
				return fmt.Errorf("fetcher: %w", err)
			}

			pp, err := planParams(cfg.Collection, p)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := openStore(ctx)
			defer s.Close() //nolint:errcheck // process is exiting.

			report, err := service.NewCrawler(s, fetcher, log).Run(ctx, service.CrawlParams{
				PlanParams:     pp,
				Passes:         p.Passes,
				MaxErrorBudget: p.MaxErrorBudget,
			})
			if errors.Is(err, models.ErrEmptyPlan) {
				fmt.Fprintln(os.Stderr, "nothing to fetch: every frontier identifier is already fetched or known bad")
				err = nil
			}

			printRunReport(report)

			return err
		},
	}

	rf.register(cmd, true)
	cmd.Flags().StringVar(&fetchCmd, "fetch-command", "", "Report fetch command (default FETCH_COMMAND)")

	return cmd
}

func printRunReport(r *service.RunReport) {
	if r == nil {
		return
	}

	output(r,
		[]string{"RUN", "PASSES", "FETCHED", "PRESENT", "SKIPPED", "BAD", "ERRORS", "STOPPED BY"},
		[][]string{{
			r.RunID.String(),
			strconv.Itoa(r.Passes),
			strconv.Itoa(r.Fetched),
			strconv.Itoa(r.AlreadyPresent),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Bad),
			strconv.Itoa(r.Errors),
			string(r.StoppedBy),
		}},
		[]string{r.RunID.String()},
	)
}
