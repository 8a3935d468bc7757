package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/vchain/internal/models"
)

// PGStore is the PostgreSQL EdgeStore.
type PGStore struct {
	Base
}

// NewPGStore creates a new PGStore.
func NewPGStore(base Base) *PGStore {
	return &PGStore{Base: base}
}

// LoadAll returns every edge of the collection ordered by parent and fetch time.
func (s *PGStore) LoadAll(ctx context.Context, collection string) ([]models.Edge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is a no-op after commit.

	rows, err := tx.Query(ctx,
		`SELECT `+edgeColumns+` FROM vc_edges
		WHERE collection = $1
		ORDER BY parent_id, fetch_time, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", classify(err))
	}

	edges, err := collectEdges(rows)
	if err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing read tx: %w", classify(err))
	}

	return edges, nil
}

// LoadBad returns every bad identifier record of the collection in insertion order.
func (s *PGStore) LoadBad(ctx context.Context, collection string) ([]models.BadIdentifier, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT `+badColumns+` FROM vc_bad_identifiers WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying bad identifiers: %w", classify(err))
	}
	defer rows.Close()

	var out []models.BadIdentifier

	for rows.Next() {
		b, err := scanBad(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning bad identifier: %w", err)
		}

		out = append(out, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bad identifiers: %w", classify(err))
	}

	return out, nil
}

// Exists reports whether the parent has any stored edges.
func (s *PGStore) Exists(ctx context.Context, collection, parentID string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool

	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vc_edges WHERE collection = $1 AND parent_id = $2)`,
		collection, parentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking parent %q: %w", parentID, classify(err))
	}

	return exists, nil
}

// InsertBatch stores one parent's edges in a single transaction. A
// transaction-scoped advisory lock on (collection, parent) serialises
// concurrent writers, so the existence check and the copy are atomic.
func (s *PGStore) InsertBatch(ctx context.Context, collection string, edges []models.Edge) (models.InsertResult, error) {
	batch, parent, err := prepareBatch(collection, edges)
	if err != nil {
		return models.InsertResult{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("inserting batch: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, collection+"/"+parent); err != nil {
		return models.InsertResult{}, fmt.Errorf("locking parent %q: %w", parent, classify(err))
	}

	var exists bool

	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vc_edges WHERE collection = $1 AND parent_id = $2)`,
		collection, parent).Scan(&exists)
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("checking parent %q: %w", parent, classify(err))
	}

	if exists {
		return models.InsertResult{Duplicate: true}, nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"vc_edges"}, edgeCopyColumns,
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			return edgeValues(&batch[i]), nil
		}))
	if err != nil {
		if isUniqueViolation(err) {
			return models.InsertResult{Duplicate: true}, nil
		}

		return models.InsertResult{}, fmt.Errorf("copying edges for %q: %w", parent, classify(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return models.InsertResult{}, fmt.Errorf("committing batch for %q: %w", parent, classify(err))
	}

	return models.InsertResult{BatchID: batch[0].BatchID, Inserted: int(n)}, nil
}

// InsertBad appends a bad identifier record.
func (s *PGStore) InsertBad(ctx context.Context, collection string, bad models.BadIdentifier) error {
	if err := validateBad(&bad); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		`INSERT INTO vc_bad_identifiers (collection, identifier, company_name, reason, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		collection, bad.Identifier, bad.CompanyName, string(bad.Reason), bad.RecordedAt)
	if err != nil {
		return fmt.Errorf("recording bad identifier %q: %w", bad.Identifier, classify(err))
	}

	return nil
}

// Ping verifies the database is reachable.
func (s *PGStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := s.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging postgres: %w", classify(err))
	}

	return nil
}

// Close closes the connection pool.
func (s *PGStore) Close() error {
	s.Pool.Close()
	return nil
}
