package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RelationshipKind classifies the direction of a value-chain relationship
// as reported by the parent company.
type RelationshipKind string

// Relationship kinds found in value-chain reports.
const (
	RelationshipSupplier RelationshipKind = "Supplier"
	RelationshipCustomer RelationshipKind = "Customer"
	RelationshipOther    RelationshipKind = "Other"
)

// ParseRelationshipKind maps a report "Relationship" cell to a RelationshipKind.
// Matching is case-insensitive; anything unrecognised is Other.
func ParseRelationshipKind(s string) RelationshipKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "supplier":
		return RelationshipSupplier
	case "customer":
		return RelationshipCustomer
	default:
		return RelationshipOther
	}
}

// Edge is one observed relationship between a parent company and a counterparty.
// Optional report columns are pointers; nil means the report left the cell empty.
type Edge struct {
	Collection       string           `json:"collection"`
	ParentID         string           `json:"parent_id"`
	ParentName       string           `json:"parent_name"`
	CounterpartyID   string           `json:"counterparty_id"`
	CounterpartyName string           `json:"counterparty_name"`
	CounterpartyType string           `json:"counterparty_type,omitempty"`
	Relationship     RelationshipKind `json:"relationship_kind"`
	Region           string           `json:"region,omitempty"`
	Industry         string           `json:"industry,omitempty"`
	ConfidenceScore  *float64         `json:"confidence_score,omitempty"`
	LastUpdateDate   *time.Time       `json:"last_update_date,omitempty"`
	FreshnessDays    *int             `json:"freshness_days,omitempty"`
	Freshness        string           `json:"freshness,omitempty"`
	SnippetCount     *int             `json:"snippet_count,omitempty"`
	RevenueEstimate  *float64         `json:"revenue_estimate,omitempty"`
	EQScore          *float64         `json:"eq_score,omitempty"`
	ImpliedRating    string           `json:"implied_rating,omitempty"`
	FetchTime        time.Time        `json:"fetch_time"`
	BatchID          uuid.UUID        `json:"batch_id"`
}

// IsSupplier reports whether the counterparty supplies the parent.
func (e *Edge) IsSupplier() bool {
	return e.Relationship == RelationshipSupplier
}

// Key identifies an edge within an insert batch.
type Key struct {
	ParentID       string
	CounterpartyID string
	Relationship   RelationshipKind
	FetchTime      time.Time
}

// Key returns the batch-unique key of the edge.
func (e *Edge) Key() Key {
	return Key{
		ParentID:       e.ParentID,
		CounterpartyID: e.CounterpartyID,
		Relationship:   e.Relationship,
		FetchTime:      e.FetchTime.UTC(),
	}
}

// Validate checks the identity fields every stored edge must carry.
func (e *Edge) Validate() error {
	if e.ParentID == "" {
		return ErrMissingParentID
	}

	if len(e.ParentID) > 255 {
		return ErrFieldTooLong("parent_id", 255)
	}

	if e.CounterpartyID == "" {
		return ErrMissingCounterpartyID
	}

	if len(e.CounterpartyID) > 255 {
		return ErrFieldTooLong("counterparty_id", 255)
	}

	if e.FetchTime.IsZero() {
		return ErrMissingFetchTime
	}

	if e.ConfidenceScore != nil && (*e.ConfidenceScore < 0 || *e.ConfidenceScore > 100) {
		return fmt.Errorf("confidence_score must be between 0 and 100")
	}

	return nil
}

// InsertResult reports the outcome of EdgeStore.InsertBatch.
type InsertResult struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Inserted int       `json:"inserted"`
	// Duplicate is set when the parent already had stored edges; nothing was written.
	Duplicate bool `json:"duplicate"`
}

// BatchParent returns the single parent ID shared by all edges of a batch.
func BatchParent(edges []Edge) (string, error) {
	if len(edges) == 0 {
		return "", ErrEmptyBatch
	}

	parent := edges[0].ParentID
	for i := range edges {
		if edges[i].ParentID != parent {
			return "", fmt.Errorf("batch mixes parents %q and %q: %w", parent, edges[i].ParentID, ErrMixedBatch)
		}
	}

	return parent, nil
}
