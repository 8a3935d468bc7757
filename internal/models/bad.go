package models

import (
	"fmt"
	"time"
)

// Reason explains why an identifier was recorded as bad.
type Reason string

// Bad identifier reasons.
const (
	ReasonNoResults       Reason = "no_results"
	ReasonSearchFailure   Reason = "search_failure"
	ReasonDownloadFailure Reason = "download_failure"
)

// ParseReason validates a stored or reported reason string.
func ParseReason(s string) (Reason, error) {
	switch r := Reason(s); r {
	case ReasonNoResults, ReasonSearchFailure, ReasonDownloadFailure:
		return r, nil
	case "no results": // legacy spelling from early bad_ticker files
		return ReasonNoResults, nil
	default:
		return "", fmt.Errorf("unknown bad identifier reason %q", s)
	}
}

// CountsAgainstBudget reports whether a failure with this reason consumes the run's error budget.
// An empty search result is an answer, not an error.
func (r Reason) CountsAgainstBudget() bool {
	return r != ReasonNoResults
}

// BadIdentifier records an identifier that failed to yield a report.
type BadIdentifier struct {
	Identifier  string    `json:"identifier"`
	CompanyName string    `json:"company_name,omitempty"`
	Reason      Reason    `json:"reason"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Validate checks BadIdentifier fields.
func (b *BadIdentifier) Validate() error {
	if b.Identifier == "" {
		return ErrMissingIdentifier
	}

	if len(b.Identifier) > 255 {
		return ErrFieldTooLong("identifier", 255)
	}

	if _, err := ParseReason(string(b.Reason)); err != nil {
		return err
	}

	return nil
}
