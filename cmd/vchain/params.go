package main

import (
	"github.com/spf13/cobra"

	"github.com/persistorai/vchain/internal/config"
	"github.com/persistorai/vchain/internal/service"
)

// runFlags are the run-parameter flags shared by crawl, plan and frontier.
// Flags override values read from --params.
type runFlags struct {
	paramsPath string
	seeds      []string
	depth      int
	maxFetch   int
	maxErrors  int
	passes     int
}

func (f *runFlags) register(cmd *cobra.Command, crawl bool) {
	cmd.Flags().StringVar(&f.paramsPath, "params", "", "YAML run parameter file")
	cmd.Flags().StringSliceVar(&f.seeds, "seed", nil, "Seed identifier (repeatable)")
	cmd.Flags().IntVar(&f.depth, "depth", config.DefaultMaxDepth, "Maximum supplier hops from the seeds")
	cmd.Flags().IntVar(&f.maxFetch, "max-fetch", config.DefaultMaxFetchPerRun, "Maximum identifiers to fetch in this run")

	if crawl {
		cmd.Flags().IntVar(&f.maxErrors, "max-errors", config.DefaultMaxErrorBudget, "Counted failures tolerated before stopping")
		cmd.Flags().IntVar(&f.passes, "passes", config.DefaultPasses, "Times the frontier is recomputed")
	}
}

// resolve loads --params and applies explicitly set flags over it.
func (f *runFlags) resolve(cmd *cobra.Command) (config.RunParams, error) {
	p, err := config.LoadRunParams(f.paramsPath)
	if err != nil {
		return p, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		p.Seeds = f.seeds
	}
	if flags.Changed("depth") {
		p.MaxDepth = f.depth
	}
	if flags.Changed("max-fetch") {
		p.MaxFetchPerRun = f.maxFetch
	}
	if flags.Changed("max-errors") {
		p.MaxErrorBudget = f.maxErrors
	}
	if flags.Changed("passes") {
		p.Passes = f.passes
	}

	if err := p.Validate(); err != nil {
		return p, err
	}

	return p, nil
}

func planParams(collection string, p config.RunParams) (service.PlanParams, error) {
	pred, err := p.Predicate()
	if err != nil {
		return service.PlanParams{}, err
	}

	return service.PlanParams{
		Collection: collection,
		Predicate:  pred,
		Seeds:      p.Seeds,
		MaxDepth:   p.MaxDepth,
		MaxFetch:   p.MaxFetchPerRun,
	}, nil
}
