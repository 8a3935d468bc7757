package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/frontier"
	"github.com/persistorai/vchain/internal/metrics"
	"github.com/persistorai/vchain/internal/models"
	"github.com/persistorai/vchain/internal/selection"
	"github.com/persistorai/vchain/internal/store"
)

// PlanParams are the inputs of one frontier/plan computation.
type PlanParams struct {
	Collection string
	Predicate  *selection.Predicate
	Seeds      []string
	MaxDepth   int
	MaxFetch   int
}

// Prepared is a computed frontier and fetch plan together with the sets they were derived from.
type Prepared struct {
	Frontier   *frontier.Frontier `json:"frontier"`
	Plan       []string           `json:"plan"`
	TotalEdges int                `json:"total_edges"`
	Selected   int                `json:"selected_edges"`
	Fetched    frontier.Set       `json:"-"`
	Bad        frontier.Set       `json:"-"`
	// Names maps identifiers to a company name seen for them in the stored edges.
	Names map[string]string `json:"-"`
}

// Planner loads the store and derives the frontier and fetch plan. It keeps no
// state between calls; every Prepare reflects the store as it is now.
type Planner struct {
	store domain.EdgeStore
	log   *logrus.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(store domain.EdgeStore, log *logrus.Logger) *Planner {
	return &Planner{store: store, log: log}
}

// Prepare loads edges and bad identifiers, filters edges with the predicate,
// expands the frontier from the seeds and diffs it into a fetch plan.
// An empty plan returns the Prepared value together with models.ErrEmptyPlan.
func (p *Planner) Prepare(ctx context.Context, params PlanParams) (*Prepared, error) {
	var (
		edges []models.Edge
		bad   []models.BadIdentifier
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		edges, err = p.store.LoadAll(gctx, params.Collection)
		if err != nil {
			return fmt.Errorf("loading edges: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		bad, err = p.store.LoadBad(gctx, params.Collection)
		if err != nil {
			return fmt.Errorf("loading bad identifiers: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Already fetched is judged on the unfiltered set: a parent whose edges
	// all fail the predicate has still been fetched.
	fetched := frontier.FetchedParents(edges)
	badSet := frontier.BadSet(bad)

	selected := edges
	if !params.Predicate.Empty() {
		selected = params.Predicate.Filter(edges)
	}

	f, err := frontier.Expand(selected, params.Seeds, params.MaxDepth)
	if err != nil {
		return nil, err
	}

	plan, planErr := frontier.Plan(f.Order, fetched, badSet, params.MaxFetch)
	if planErr != nil && !errors.Is(planErr, models.ErrEmptyPlan) {
		return nil, planErr
	}

	metrics.FrontierSize.Set(float64(f.Len()))
	metrics.PlanSize.Set(float64(len(plan)))

	p.log.WithFields(logrus.Fields{
		"collection": params.Collection,
		"edges":      len(edges),
		"selected":   len(selected),
		"selection":  params.Predicate.String(),
		"frontier":   f.Len(),
		"hops":       f.Hops,
		"fetched":    len(fetched),
		"bad":        len(badSet),
		"plan":       len(plan),
	}).Debug("plan prepared")

	return &Prepared{
		Frontier:   f,
		Plan:       plan,
		TotalEdges: len(edges),
		Selected:   len(selected),
		Fetched:    fetched,
		Bad:        badSet,
		Names:      companyNames(edges),
	}, planErr
}

// companyNames collects a display name per identifier from both ends of every edge.
// Counterparty names win over parent names; the first non-empty name is kept.
func companyNames(edges []models.Edge) map[string]string {
	names := make(map[string]string)

	for _, e := range edges {
		if _, ok := names[e.CounterpartyID]; !ok && e.CounterpartyName != "" {
			names[e.CounterpartyID] = e.CounterpartyName
		}
	}

	for _, e := range edges {
		if _, ok := names[e.ParentID]; !ok && e.ParentName != "" {
			names[e.ParentID] = e.ParentName
		}
	}

	return names
}

// Selected loads the collection's edges that pass the predicate.
func (p *Planner) Selected(ctx context.Context, collection string, pred *selection.Predicate) ([]models.Edge, error) {
	if pred.Empty() {
		return store.LoadMatching(ctx, p.store, collection, nil)
	}

	return store.LoadMatching(ctx, p.store, collection, pred)
}
