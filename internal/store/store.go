// Package store provides the EdgeStore backends for the crawler.
//
// PGStore is the primary backend. SQLiteStore keeps the same schema in a
// local file, and FileStore keeps one JSON document per fetched parent plus
// a CSV of bad identifiers. All of them satisfy domain.EdgeStore and share
// the batch checks in this file.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/dbpool"
	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Compile-time interface checks.
var (
	_ domain.EdgeStore = (*PGStore)(nil)
	_ domain.EdgeStore = (*SQLiteStore)(nil)
	_ domain.EdgeStore = (*FileStore)(nil)
)

// Base contains shared dependencies for the Postgres store.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", classify(err))
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", classify(err))
	}

	return tx, nil
}

// prepareBatch validates a batch and returns a copy stamped with the
// collection, a fresh batch ID and UTC fetch times.
func prepareBatch(collection string, edges []models.Edge) ([]models.Edge, string, error) {
	parent, err := models.BatchParent(edges)
	if err != nil {
		return nil, "", err
	}

	batchID := uuid.New()
	out := make([]models.Edge, len(edges))
	seen := make(map[models.Key]struct{}, len(edges))

	for i := range edges {
		e := edges[i]
		if err := e.Validate(); err != nil {
			return nil, "", fmt.Errorf("edge %d (%s): %w", i, e.CounterpartyID, err)
		}

		e.Collection = collection
		e.BatchID = batchID
		e.FetchTime = e.FetchTime.UTC()

		k := e.Key()
		if _, dup := seen[k]; dup {
			return nil, "", fmt.Errorf("counterparty %q (%s): %w", e.CounterpartyID, e.Relationship, models.ErrDuplicateEdge)
		}

		seen[k] = struct{}{}
		out[i] = e
	}

	return out, parent, nil
}

func validateBad(bad *models.BadIdentifier) error {
	if err := bad.Validate(); err != nil {
		return fmt.Errorf("bad identifier: %w", err)
	}

	if bad.RecordedAt.IsZero() {
		bad.RecordedAt = time.Now().UTC()
	}

	return nil
}
