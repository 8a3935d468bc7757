package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/metrics"
	"github.com/persistorai/vchain/internal/models"
)

// StopReason says why a crawl run ended.
type StopReason string

// Stop reasons.
const (
	StopPlanExhausted StopReason = "plan_exhausted"
	StopFetchLimit    StopReason = "fetch_limit"
	StopErrorBudget   StopReason = "error_budget"
	StopPasses        StopReason = "passes_complete"
	StopAborted       StopReason = "aborted"
)

// CrawlParams configures a run.
type CrawlParams struct {
	PlanParams
	// Passes bounds how many times the frontier is recomputed.
	Passes int
	// MaxErrorBudget is the number of counted failures tolerated; the run
	// stops once it is exceeded.
	MaxErrorBudget int
}

// RunReport summarises a crawl run.
type RunReport struct {
	RunID          uuid.UUID  `json:"run_id"`
	Collection     string     `json:"collection"`
	Passes         int        `json:"passes"`
	Fetched        int        `json:"fetched"`
	AlreadyPresent int        `json:"already_present"`
	Skipped        int        `json:"skipped"`
	Bad            int        `json:"bad"`
	Errors         int        `json:"errors"`
	StoppedBy      StopReason `json:"stopped_by"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at"`
}

// Crawler runs the fetch loop: plan, fetch each planned identifier, merge or
// record the failure, and recompute the plan for the next pass.
type Crawler struct {
	store   domain.EdgeStore
	fetcher domain.Fetcher
	planner *Planner
	merger  *Merger
	log     *logrus.Logger
}

// NewCrawler creates a Crawler.
func NewCrawler(store domain.EdgeStore, fetcher domain.Fetcher, log *logrus.Logger) *Crawler {
	return &Crawler{
		store:   store,
		fetcher: fetcher,
		planner: NewPlanner(store, log),
		merger:  NewMerger(store, log),
		log:     log,
	}
}

// Run crawls until the plan is exhausted, the fetch limit or error budget is
// reached, or the configured passes are used up. An empty plan on the first
// pass is returned as models.ErrEmptyPlan. Store failures and cancellation
// abort the run; the report is returned in every case.
func (c *Crawler) Run(ctx context.Context, params CrawlParams) (*RunReport, error) {
	if params.Passes < 1 {
		return nil, fmt.Errorf("passes must be at least 1, got %d", params.Passes)
	}

	r := &RunReport{
		RunID:      uuid.New(),
		Collection: params.Collection,
		StartedAt:  time.Now().UTC(),
	}
	log := c.log.WithFields(logrus.Fields{
		"run_id":     r.RunID,
		"collection": params.Collection,
	})

	defer func() {
		r.FinishedAt = time.Now().UTC()
		log.WithFields(logrus.Fields{
			"passes":          r.Passes,
			"fetched":         r.Fetched,
			"already_present": r.AlreadyPresent,
			"skipped":         r.Skipped,
			"bad":             r.Bad,
			"errors":          r.Errors,
			"stopped_by":      r.StoppedBy,
			"duration":        r.FinishedAt.Sub(r.StartedAt),
		}).Info("crawl finished")
	}()

	log.WithFields(logrus.Fields{
		"seeds":     params.Seeds,
		"max_depth": params.MaxDepth,
		"max_fetch": params.MaxFetch,
		"passes":    params.Passes,
		"selection": params.Predicate.String(),
	}).Info("crawl started")

	for pass := 1; pass <= params.Passes; pass++ {
		pp := params.PlanParams
		pp.MaxFetch = params.MaxFetch - r.Fetched

		prep, err := c.planner.Prepare(ctx, pp)
		if errors.Is(err, models.ErrEmptyPlan) {
			r.StoppedBy = StopPlanExhausted
			if pass == 1 {
				log.Warn("nothing to fetch under the current selection")
				return r, err
			}
			break
		}
		if err != nil {
			r.StoppedBy = StopAborted
			return r, fmt.Errorf("planning pass %d: %w", pass, err)
		}

		r.Passes = pass
		log.WithFields(logrus.Fields{"pass": pass, "frontier": prep.Frontier.Len(), "plan": len(prep.Plan)}).Info("pass planned")

		for _, id := range prep.Plan {
			if err := ctx.Err(); err != nil {
				r.StoppedBy = StopAborted
				return r, err
			}

			if err := c.visit(ctx, log.WithField("identifier", id), params.Collection, id, prep.Names[id], r); err != nil {
				r.StoppedBy = StopAborted
				return r, err
			}

			if r.Errors > params.MaxErrorBudget {
				r.StoppedBy = StopErrorBudget
				log.WithField("errors", r.Errors).Warn("error budget exceeded, stopping")
				return r, nil
			}

			if r.Fetched >= params.MaxFetch {
				r.StoppedBy = StopFetchLimit
				return r, nil
			}
		}
	}

	if r.StoppedBy == "" {
		r.StoppedBy = StopPasses
	}

	return r, nil
}

// visit fetches one identifier and routes the result. A returned error aborts the run.
func (c *Crawler) visit(ctx context.Context, log *logrus.Entry, collection, id, name string, r *RunReport) error {
	// Another worker may have stored this parent since the plan was computed.
	exists, err := c.store.Exists(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("checking %s: %w", id, err)
	}

	if exists {
		r.Skipped++
		metrics.FetchAttempts.WithLabelValues(metrics.OutcomeSkipped).Inc()
		log.Debug("already stored, skipping")

		return nil
	}

	x, err := c.fetcher.FetchReport(ctx, id)
	if err == nil && x != nil && x.ParentID != id {
		err = fmt.Errorf("%w: report for %q names parent %q", models.ErrMalformedExtract, id, x.ParentID)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return c.fetchFailed(ctx, log, collection, id, name, err, r)
	}

	res, err := c.merger.Merge(ctx, collection, x)
	if err != nil {
		if errors.Is(err, models.ErrNoRows) || errors.Is(err, models.ErrMalformedExtract) {
			return c.fetchFailed(ctx, log, collection, id, name, err, r)
		}

		return err
	}

	if res.Status == MergeAlreadyPresent {
		r.AlreadyPresent++
		metrics.FetchAttempts.WithLabelValues(metrics.OutcomePresent).Inc()

		return nil
	}

	r.Fetched++
	metrics.FetchAttempts.WithLabelValues(metrics.OutcomeFetched).Inc()

	return nil
}

// fetchFailed classifies a failed fetch, records bad identifiers and charges the error budget.
func (c *Crawler) fetchFailed(ctx context.Context, log *logrus.Entry, collection, id, name string, err error, r *RunReport) error {
	var reason models.Reason

	if ff, ok := models.AsFetchFailure(err); ok {
		reason = ff.Reason
	} else if errors.Is(err, models.ErrNoRows) {
		reason = models.ReasonNoResults
	} else if errors.Is(err, models.ErrMalformedExtract) {
		reason = models.ReasonDownloadFailure
	}

	if reason == "" {
		r.Errors++
		metrics.FetchAttempts.WithLabelValues(metrics.OutcomeTransient).Inc()
		metrics.ErrorsTotal.WithLabelValues("fetch").Inc()
		log.WithError(err).Warn("fetch failed, will retry on a later run")

		return nil
	}

	bad := models.BadIdentifier{
		Identifier:  id,
		CompanyName: name,
		Reason:      reason,
		RecordedAt:  time.Now().UTC(),
	}
	if err := c.store.InsertBad(ctx, collection, bad); err != nil {
		return fmt.Errorf("recording %s as bad: %w", id, err)
	}

	r.Bad++
	if reason.CountsAgainstBudget() {
		r.Errors++
	}

	metrics.FetchAttempts.WithLabelValues(metrics.OutcomeBad).Inc()
	metrics.BadIdentifiers.WithLabelValues(string(reason)).Inc()
	log.WithError(err).WithField("reason", reason).Warn("identifier recorded as bad")

	return nil
}
