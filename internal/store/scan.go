package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/vchain/internal/models"
)

// edgeColumns lists the columns selected and inserted for edge queries, in scan order.
const edgeColumns = `collection, batch_id, parent_id, parent_name,
	counterparty_id, counterparty_name, counterparty_type, relationship_kind,
	region, industry, confidence_score, last_update_date, freshness_days,
	freshness, snippet_count, revenue_estimate, eq_score, implied_rating, fetch_time`

// badColumns lists the columns selected for bad identifier queries.
const badColumns = `identifier, company_name, reason, recorded_at`

// edgeCopyColumns is edgeColumns as a CopyFrom column list.
var edgeCopyColumns = []string{
	"collection", "batch_id", "parent_id", "parent_name",
	"counterparty_id", "counterparty_name", "counterparty_type", "relationship_kind",
	"region", "industry", "confidence_score", "last_update_date", "freshness_days",
	"freshness", "snippet_count", "revenue_estimate", "eq_score", "implied_rating", "fetch_time",
}

// edgeValues returns e's values in edgeCopyColumns order.
func edgeValues(e *models.Edge) []any {
	return []any{
		e.Collection, e.BatchID, e.ParentID, e.ParentName,
		e.CounterpartyID, e.CounterpartyName, e.CounterpartyType, string(e.Relationship),
		e.Region, e.Industry, e.ConfidenceScore, e.LastUpdateDate, e.FreshnessDays,
		e.Freshness, e.SnippetCount, e.RevenueEstimate, e.EQScore, e.ImpliedRating, e.FetchTime,
	}
}

// scanEdge scans a single row into a models.Edge.
func scanEdge(scan func(dest ...any) error) (models.Edge, error) {
	var e models.Edge
	var kind string

	err := scan(
		&e.Collection,
		&e.BatchID,
		&e.ParentID,
		&e.ParentName,
		&e.CounterpartyID,
		&e.CounterpartyName,
		&e.CounterpartyType,
		&kind,
		&e.Region,
		&e.Industry,
		&e.ConfidenceScore,
		&e.LastUpdateDate,
		&e.FreshnessDays,
		&e.Freshness,
		&e.SnippetCount,
		&e.RevenueEstimate,
		&e.EQScore,
		&e.ImpliedRating,
		&e.FetchTime,
	)
	if err != nil {
		return models.Edge{}, err
	}

	e.Relationship = models.ParseRelationshipKind(kind)
	e.FetchTime = e.FetchTime.UTC()

	return e, nil
}

// collectEdges scans all rows into a slice of edges.
func collectEdges(rows pgx.Rows) ([]models.Edge, error) {
	defer rows.Close()

	var edges []models.Edge

	for rows.Next() {
		e, err := scanEdge(rows.Scan)
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

// scanBad scans a single row into a models.BadIdentifier.
func scanBad(scan func(dest ...any) error) (models.BadIdentifier, error) {
	var b models.BadIdentifier
	var reason string

	if err := scan(&b.Identifier, &b.CompanyName, &reason, &b.RecordedAt); err != nil {
		return models.BadIdentifier{}, err
	}

	r, err := models.ParseReason(reason)
	if err != nil {
		return models.BadIdentifier{}, err
	}

	b.Reason = r
	b.RecordedAt = b.RecordedAt.UTC()

	return b, nil
}
