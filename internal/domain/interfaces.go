// Package domain defines the canonical interfaces shared by the crawler,
// the planner, the HTTP status API and the CLI. Consumers should depend on
// these interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/vchain/internal/models"
)

// EdgeStore is the persistent record of fetched edges and failed identifiers
// for one or more collections.
type EdgeStore interface {
	// LoadAll returns every stored edge of the collection.
	LoadAll(ctx context.Context, collection string) ([]models.Edge, error)
	// LoadBad returns every recorded bad identifier of the collection.
	LoadBad(ctx context.Context, collection string) ([]models.BadIdentifier, error)
	// Exists reports whether any edge with the given parent is stored.
	Exists(ctx context.Context, collection, parentID string) (bool, error)
	// InsertBatch stores edges that all share one parent, all-or-nothing.
	// If the parent already has edges nothing is written and the result is
	// marked Duplicate.
	InsertBatch(ctx context.Context, collection string, edges []models.Edge) (models.InsertResult, error)
	// InsertBad appends a bad identifier record.
	InsertBad(ctx context.Context, collection string, bad models.BadIdentifier) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend's resources.
	Close() error
}

// Fetcher retrieves a parsed value-chain report for one identifier.
// Failures the caller should record as bad are returned as *models.FetchFailure.
type Fetcher interface {
	FetchReport(ctx context.Context, identifier string) (*models.Extract, error)
}
