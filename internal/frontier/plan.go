package frontier

import (
	"errors"

	"github.com/persistorai/vchain/internal/models"
)

// ErrNegativeMaxFetch is returned by Plan for a negative fetch cap.
var ErrNegativeMaxFetch = errors.New("max fetch must not be negative")

// Set is a set of identifiers.
type Set map[string]struct{}

// NewSet builds a Set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}

	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// FetchedParents returns every parent that already has stored edges.
// Pass the unfiltered edge set: a parent counts as fetched regardless of selection.
func FetchedParents(edges []models.Edge) Set {
	s := make(Set)
	for i := range edges {
		s[edges[i].ParentID] = struct{}{}
	}

	return s
}

// BadSet returns the identifiers of the given bad identifier records.
func BadSet(records []models.BadIdentifier) Set {
	s := make(Set, len(records))
	for _, r := range records {
		s[r.Identifier] = struct{}{}
	}

	return s
}

// Plan returns candidates not yet fetched and not known bad, in candidate
// order, capped at maxFetch entries. An empty result returns models.ErrEmptyPlan
// together with the (empty, non-nil) plan.
func Plan(candidates []string, fetched, bad Set, maxFetch int) ([]string, error) {
	if maxFetch < 0 {
		return nil, ErrNegativeMaxFetch
	}

	plan := make([]string, 0, min(len(candidates), maxFetch))
	seen := make(Set, len(candidates))

	for _, id := range candidates {
		if len(plan) >= maxFetch {
			break
		}

		if seen.Has(id) || fetched.Has(id) || bad.Has(id) {
			continue
		}

		seen[id] = struct{}{}
		plan = append(plan, id)
	}

	if len(plan) == 0 {
		return plan, models.ErrEmptyPlan
	}

	return plan, nil
}
