package models

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the accepted spellings of a report date cell.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// ParseDate parses a report date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// Extract is one parsed value-chain report for a single parent company,
// as handed over by the report fetch collaborator.
type Extract struct {
	ParentID   string       `json:"parent_id"`
	ParentName string       `json:"parent_name"`
	FetchTime  time.Time    `json:"fetch_time"`
	Rows       []ExtractRow `json:"rows"`
}

// ExtractRow is one counterparty row of a report.
type ExtractRow struct {
	Identifier      string   `json:"identifier"`
	CompanyName     string   `json:"company_name"`
	Type            string   `json:"type,omitempty"`
	Relationship    string   `json:"relationship"`
	Region          string   `json:"region,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	LastUpdateDate  string   `json:"last_update_date,omitempty"`
	FreshnessDays   *int     `json:"freshness_days,omitempty"`
	Freshness       string   `json:"freshness,omitempty"`
	SnippetCount    *int     `json:"snippet_count,omitempty"`
	RevenueEstimate *float64 `json:"revenue_estimate,omitempty"`
	EQScore         *float64 `json:"eq_score,omitempty"`
	ImpliedRating   string   `json:"implied_rating,omitempty"`
}

// Validate checks that the extract carries a parent identity, a fetch time
// and a counterparty identifier on every row. Failures wrap ErrMalformedExtract,
// except a report without rows which returns ErrNoRows.
func (x *Extract) Validate() error {
	if strings.TrimSpace(x.ParentID) == "" {
		return fmt.Errorf("%w: %w", ErrMalformedExtract, ErrMissingParentID)
	}

	if x.FetchTime.IsZero() {
		return fmt.Errorf("%w: %w", ErrMalformedExtract, ErrMissingFetchTime)
	}

	if len(x.Rows) == 0 {
		return ErrNoRows
	}

	for i, row := range x.Rows {
		if strings.TrimSpace(row.Identifier) == "" {
			return fmt.Errorf("%w: row %d: %w", ErrMalformedExtract, i, ErrMissingCounterpartyID)
		}

		if row.LastUpdateDate != "" {
			if _, err := ParseDate(row.LastUpdateDate); err != nil {
				return fmt.Errorf("%w: row %d: %w", ErrMalformedExtract, i, err)
			}
		}
	}

	return nil
}

// Edges normalises the extract into edge records tagged with collection,
// attaching the parent identity and fetch time to every row. A row that does
// not make a valid edge fails the whole extract with ErrMalformedExtract.
func (x *Extract) Edges(collection string) ([]Edge, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	parentID := strings.TrimSpace(x.ParentID)
	fetchTime := x.FetchTime.UTC()
	edges := make([]Edge, 0, len(x.Rows))

	for i, row := range x.Rows {
		e := Edge{
			Collection:       collection,
			ParentID:         parentID,
			ParentName:       x.ParentName,
			CounterpartyID:   strings.TrimSpace(row.Identifier),
			CounterpartyName: row.CompanyName,
			CounterpartyType: row.Type,
			Relationship:     ParseRelationshipKind(row.Relationship),
			Region:           row.Region,
			Industry:         row.Industry,
			ConfidenceScore:  row.ConfidenceScore,
			FreshnessDays:    row.FreshnessDays,
			Freshness:        row.Freshness,
			SnippetCount:     row.SnippetCount,
			RevenueEstimate:  row.RevenueEstimate,
			EQScore:          row.EQScore,
			ImpliedRating:    row.ImpliedRating,
			FetchTime:        fetchTime,
		}

		if row.LastUpdateDate != "" {
			d, _ := ParseDate(row.LastUpdateDate) //nolint:errcheck // checked by Validate.
			e.LastUpdateDate = &d
		}

		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrMalformedExtract, i, err)
		}

		edges = append(edges, e)
	}

	return edges, nil
}
