package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"github.com/persistorai/vchain/internal/db"
	"github.com/persistorai/vchain/internal/models"
)

// Stored times are fixed-width UTC text so they sort chronologically.
const (
	sqliteDateLayout = "2006-01-02"
	sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

// SQLiteStore keeps the edge schema in a local SQLite file.
type SQLiteStore struct {
	conn *sql.DB
	log  *logrus.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, log *logrus.Logger) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}

	// One writer at a time; the exists check and insert share a transaction.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := db.RunSQLiteMigrations(ctx, conn, log); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteStore{conn: conn, log: log}, nil
}

// LoadAll returns every edge of the collection ordered by parent and fetch time.
func (s *SQLiteStore) LoadAll(ctx context.Context, collection string) ([]models.Edge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+edgeColumns+` FROM vc_edges
		WHERE collection = ?
		ORDER BY parent_id, fetch_time, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []models.Edge

	for rows.Next() {
		e, err := scanSQLiteEdge(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}

		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	return edges, nil
}

// LoadBad returns every bad identifier record of the collection in insertion order.
func (s *SQLiteStore) LoadBad(ctx context.Context, collection string) ([]models.BadIdentifier, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+badColumns+` FROM vc_bad_identifiers WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying bad identifiers: %w", err)
	}
	defer rows.Close()

	var out []models.BadIdentifier

	for rows.Next() {
		var b models.BadIdentifier
		var reason, recorded string

		if err := rows.Scan(&b.Identifier, &b.CompanyName, &reason, &recorded); err != nil {
			return nil, fmt.Errorf("scanning bad identifier: %w", err)
		}

		if b.Reason, err = models.ParseReason(reason); err != nil {
			return nil, err
		}

		if b.RecordedAt, err = time.Parse(sqliteTimeLayout, recorded); err != nil {
			return nil, fmt.Errorf("parsing recorded_at for %q: %w", b.Identifier, err)
		}

		out = append(out, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bad identifiers: %w", err)
	}

	return out, nil
}

// Exists reports whether the parent has any stored edges.
func (s *SQLiteStore) Exists(ctx context.Context, collection, parentID string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return existsSQLite(ctx, s.conn, collection, parentID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func existsSQLite(ctx context.Context, q queryRower, collection, parentID string) (bool, error) {
	var exists bool

	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM vc_edges WHERE collection = ? AND parent_id = ?)`,
		collection, parentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking parent %q: %w", parentID, err)
	}

	return exists, nil
}

// InsertBatch stores one parent's edges in a single transaction.
func (s *SQLiteStore) InsertBatch(ctx context.Context, collection string, edges []models.Edge) (models.InsertResult, error) {
	batch, parent, err := prepareBatch(collection, edges)
	if err != nil {
		return models.InsertResult{}, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	exists, err := existsSQLite(ctx, tx, collection, parent)
	if err != nil {
		return models.InsertResult{}, err
	}

	if exists {
		return models.InsertResult{Duplicate: true}, nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vc_edges (`+edgeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("preparing edge insert: %w", err)
	}
	defer stmt.Close()

	for i := range batch {
		if _, err := stmt.ExecContext(ctx, sqliteEdgeValues(&batch[i])...); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return models.InsertResult{Duplicate: true}, nil
			}

			return models.InsertResult{}, fmt.Errorf("inserting edge %s -> %s: %w", parent, batch[i].CounterpartyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.InsertResult{}, fmt.Errorf("committing batch for %q: %w", parent, err)
	}

	return models.InsertResult{BatchID: batch[0].BatchID, Inserted: len(batch)}, nil
}

// InsertBad appends a bad identifier record.
func (s *SQLiteStore) InsertBad(ctx context.Context, collection string, bad models.BadIdentifier) error {
	if err := validateBad(&bad); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO vc_bad_identifiers (collection, identifier, company_name, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		collection, bad.Identifier, bad.CompanyName, string(bad.Reason), bad.RecordedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("recording bad identifier %q: %w", bad.Identifier, err)
	}

	return nil
}

// Ping verifies the database file is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging sqlite: %w", errors.Join(models.ErrStoreUnavailable, err))
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// sqliteEdgeValues returns e's values in edgeColumns order, with times as text.
func sqliteEdgeValues(e *models.Edge) []any {
	vals := edgeValues(e)
	vals[1] = e.BatchID.String()

	if e.LastUpdateDate != nil {
		vals[11] = e.LastUpdateDate.UTC().Format(sqliteDateLayout)
	} else {
		vals[11] = nil
	}

	vals[18] = e.FetchTime.UTC().Format(sqliteTimeLayout)

	return vals
}

// scanSQLiteEdge scans a row whose dates are stored as text.
func scanSQLiteEdge(scan func(dest ...any) error) (models.Edge, error) {
	var e models.Edge
	var batchID, kind, fetchTime string
	var lastUpdate *string

	err := scan(
		&e.Collection,
		&batchID,
		&e.ParentID,
		&e.ParentName,
		&e.CounterpartyID,
		&e.CounterpartyName,
		&e.CounterpartyType,
		&kind,
		&e.Region,
		&e.Industry,
		&e.ConfidenceScore,
		&lastUpdate,
		&e.FreshnessDays,
		&e.Freshness,
		&e.SnippetCount,
		&e.RevenueEstimate,
		&e.EQScore,
		&e.ImpliedRating,
		&fetchTime,
	)
	if err != nil {
		return models.Edge{}, err
	}

	if err := e.BatchID.UnmarshalText([]byte(batchID)); err != nil {
		return models.Edge{}, fmt.Errorf("parsing batch_id: %w", err)
	}

	e.Relationship = models.ParseRelationshipKind(kind)

	if e.FetchTime, err = time.Parse(sqliteTimeLayout, fetchTime); err != nil {
		return models.Edge{}, fmt.Errorf("parsing fetch_time: %w", err)
	}

	if lastUpdate != nil {
		d, err := time.Parse(sqliteDateLayout, *lastUpdate)
		if err != nil {
			return models.Edge{}, fmt.Errorf("parsing last_update_date: %w", err)
		}

		e.LastUpdateDate = &d
	}

	return e, nil
}
