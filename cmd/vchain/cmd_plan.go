package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/models"
	"github.com/persistorai/vchain/internal/service"
)

// prepare resolves flags and runs the planner against the configured store.
func prepare(cmd *cobra.Command, rf *runFlags) (*service.Prepared, error) {
	p, err := rf.resolve(cmd)
	if err != nil {
		return nil, err
	}

	pp, err := planParams(cfg.Collection, p)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	s := openStore(ctx)
	defer s.Close() //nolint:errcheck // read-only use.

	return service.NewPlanner(s, log).Prepare(ctx, pp)
}

func newPlanCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the identifiers the next crawl would fetch",
		RunE: func(cmd *cobra.Command, args []string) error {
			prep, err := prepare(cmd, &rf)
			if errors.Is(err, models.ErrEmptyPlan) {
				fmt.Fprintln(os.Stderr, "empty plan: nothing left to fetch")
				err = nil
			}
			if err != nil {
				return err
			}

			rows := make([][]string, len(prep.Plan))
			for i, id := range prep.Plan {
				rows[i] = []string{strconv.Itoa(i + 1), id, strconv.Itoa(prep.Frontier.Depth[id])}
			}

			output(prep, []string{"#", "IDENTIFIER", "DEPTH"}, rows, prep.Plan)

			return nil
		},
	}

	rf.register(cmd, false)

	return cmd
}

func newFrontierCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "frontier",
		Short: "Show every identifier reachable from the seeds through supplier edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			prep, err := prepare(cmd, &rf)
			if err != nil && !errors.Is(err, models.ErrEmptyPlan) {
				return err
			}

			rows := make([][]string, len(prep.Frontier.Order))
			for i, id := range prep.Frontier.Order {
				state := "pending"
				switch {
				case prep.Fetched.Has(id):
					state = "fetched"
				case prep.Bad.Has(id):
					state = "bad"
				}
				rows[i] = []string{id, strconv.Itoa(prep.Frontier.Depth[id]), state}
			}

			output(prep.Frontier, []string{"IDENTIFIER", "DEPTH", "STATE"}, rows, prep.Frontier.Order)

			return nil
		},
	}

	rf.register(cmd, false)

	return cmd
}
