// Package service holds the crawl workflow: merging fetched extracts into the
// edge store, computing frontier and fetch plan views, and running the
// multi-pass fetch loop.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/metrics"
	"github.com/persistorai/vchain/internal/models"
)

// MergeStatus is the outcome of a merge.
type MergeStatus string

// Merge outcomes.
const (
	MergeInserted       MergeStatus = "inserted"
	MergeAlreadyPresent MergeStatus = "already_present"
)

// MergeResult reports what Merge did with an extract.
type MergeResult struct {
	Status   MergeStatus `json:"status"`
	ParentID string      `json:"parent_id"`
	BatchID  uuid.UUID   `json:"batch_id,omitempty"`
	Edges    int         `json:"edges"`
	// Dropped counts rows that repeated an earlier (counterparty, relationship) pair.
	Dropped int `json:"dropped,omitempty"`
}

// Merger turns extracts into edge batches in the store.
type Merger struct {
	store domain.EdgeStore
	log   *logrus.Logger
}

// NewMerger creates a Merger.
func NewMerger(store domain.EdgeStore, log *logrus.Logger) *Merger {
	return &Merger{store: store, log: log}
}

// Merge validates x, normalises its rows and stores them as one batch.
// A parent that already has edges is reported as MergeAlreadyPresent and
// nothing is written. Validation failures wrap models.ErrMalformedExtract
// or are models.ErrNoRows.
func (m *Merger) Merge(ctx context.Context, collection string, x *models.Extract) (MergeResult, error) {
	if x == nil {
		return MergeResult{}, fmt.Errorf("%w: nil extract", models.ErrMalformedExtract)
	}

	edges, err := x.Edges(collection)
	if err != nil {
		return MergeResult{ParentID: x.ParentID}, err
	}

	edges, dropped := dedupeRows(edges)
	res := MergeResult{ParentID: edges[0].ParentID, Dropped: dropped}

	log := m.log.WithFields(logrus.Fields{
		"collection": collection,
		"identifier": res.ParentID,
	})

	if dropped > 0 {
		log.WithField("dropped", dropped).Warn("extract repeats counterparties, keeping first occurrence")
	}

	ins, err := m.store.InsertBatch(ctx, collection, edges)
	if err != nil {
		return res, fmt.Errorf("merging %s: %w", res.ParentID, err)
	}

	if ins.Duplicate {
		log.Warn("parent already present, extract discarded")

		res.Status = MergeAlreadyPresent

		return res, nil
	}

	res.Status = MergeInserted
	res.BatchID = ins.BatchID
	res.Edges = ins.Inserted

	metrics.EdgesIngested.Add(float64(ins.Inserted))
	log.WithFields(logrus.Fields{"edges": ins.Inserted, "batch_id": ins.BatchID}).Info("extract merged")

	return res, nil
}

// dedupeRows keeps the first edge for each (counterparty, relationship) pair.
func dedupeRows(edges []models.Edge) ([]models.Edge, int) {
	type pair struct {
		id   string
		kind models.RelationshipKind
	}

	seen := make(map[pair]struct{}, len(edges))
	out := edges[:0:0]

	for i := range edges {
		k := pair{edges[i].CounterpartyID, edges[i].Relationship}
		if _, dup := seen[k]; dup {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, edges[i])
	}

	return out, len(edges) - len(out)
}
