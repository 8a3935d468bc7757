package selection

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/persistorai/vchain/internal/models"
)

// accessor reads a comparable value from an edge; ok is false when the cell is missing.
type accessor func(e *models.Edge) (v float64, ok bool)

type fieldKind int

const (
	numericField fieldKind = iota
	dateField
)

type fieldSpec struct {
	name string
	kind fieldKind
	get  accessor
}

var fields = map[string]fieldSpec{
	"confidence_score": {name: "confidence_score", kind: numericField, get: func(e *models.Edge) (float64, bool) {
		return floatPtr(e.ConfidenceScore)
	}},
	"freshness_days": {name: "freshness_days", kind: numericField, get: func(e *models.Edge) (float64, bool) {
		return intPtr(e.FreshnessDays)
	}},
	"snippet_count": {name: "snippet_count", kind: numericField, get: func(e *models.Edge) (float64, bool) {
		return intPtr(e.SnippetCount)
	}},
	"revenue_estimate": {name: "revenue_estimate", kind: numericField, get: func(e *models.Edge) (float64, bool) {
		return floatPtr(e.RevenueEstimate)
	}},
	"eq_score": {name: "eq_score", kind: numericField, get: func(e *models.Edge) (float64, bool) {
		return floatPtr(e.EQScore)
	}},
	"last_update_date": {name: "last_update_date", kind: dateField, get: func(e *models.Edge) (float64, bool) {
		if e.LastUpdateDate == nil {
			return 0, false
		}
		return dayOrdinal(*e.LastUpdateDate), true
	}},
	"fetch_time": {name: "fetch_time", kind: dateField, get: func(e *models.Edge) (float64, bool) {
		if e.FetchTime.IsZero() {
			return 0, false
		}
		return dayOrdinal(e.FetchTime), true
	}},
}

// aliases maps value-chain report column headers to field names.
var aliases = map[string]string{
	"confidence score (%)":   "confidence_score",
	"confidence score":       "confidence_score",
	"days since last update": "freshness_days",
	"snippet count":          "snippet_count",
	"revenue (usd)":          "revenue_estimate",
	"eq score":               "eq_score",
	"last update date":       "last_update_date",
}

func lookupField(name string) (fieldSpec, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}

	fld, ok := fields[key]

	return fld, ok
}

// normalize converts a configured bound into the comparable numeric form.
func (f fieldSpec) normalize(bound any) (float64, error) {
	if f.kind == dateField {
		switch b := bound.(type) {
		case time.Time:
			return dayOrdinal(b), nil
		case string:
			t, err := models.ParseDate(b)
			if err != nil {
				return 0, err
			}
			return dayOrdinal(t), nil
		default:
			return 0, fmt.Errorf("date bound must be a date string, got %T", bound)
		}
	}

	switch b := bound.(type) {
	case float64:
		return b, nil
	case float32:
		return float64(b), nil
	case int:
		return float64(b), nil
	case int64:
		return float64(b), nil
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if err != nil {
			return 0, fmt.Errorf("numeric bound %q: %w", b, err)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("numeric bound must be a number, got %T", bound)
	}
}

func floatPtr(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func intPtr(p *int) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}
