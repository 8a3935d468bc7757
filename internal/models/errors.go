package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingParentID       = errors.New("parent_id is required")
	ErrMissingCounterpartyID = errors.New("counterparty_id is required")
	ErrMissingFetchTime      = errors.New("fetch_time is required")
	ErrMissingIdentifier     = errors.New("identifier is required")
	ErrEmptyBatch            = errors.New("edge batch is empty")
	ErrMixedBatch            = errors.New("edge batch must share a single parent")
	ErrDuplicateEdge         = errors.New("edge batch repeats an observation")
)

// Sentinel errors for the fetch/plan cycle.
var (
	// ErrStoreUnavailable means the backing store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEmptyPlan means no identifier is left to fetch under the current selection.
	ErrEmptyPlan = errors.New("empty fetch plan")

	// ErrMalformedExtract means a fetched extract is missing required fields.
	ErrMalformedExtract = errors.New("malformed extract")

	// ErrNoRows means a report was delivered but lists no counterparties.
	ErrNoRows = errors.New("extract has no rows")
)

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// FetchFailure is returned by a report fetcher when an identifier yielded no usable report.
type FetchFailure struct {
	Identifier string
	Reason     Reason
	Message    string
}

// Error implements error.
func (f *FetchFailure) Error() string {
	if f.Message == "" {
		return fmt.Sprintf("fetching %s: %s", f.Identifier, f.Reason)
	}

	return fmt.Sprintf("fetching %s: %s: %s", f.Identifier, f.Reason, f.Message)
}

// AsFetchFailure unwraps err into a *FetchFailure if it is one.
func AsFetchFailure(err error) (*FetchFailure, bool) {
	var ff *FetchFailure
	if errors.As(err, &ff) {
		return ff, true
	}

	return nil, false
}
