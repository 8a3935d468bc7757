// Package frontier computes which companies a crawl should visit next.
//
// Expand walks "supplier of" edges outward from seed identifiers and Plan
// diffs the reachable set against what is already fetched or known bad.
// Both are pure functions over values loaded from the edge store; nothing
// here is cached between runs.
package frontier

import (
	"errors"
	"sort"

	"github.com/persistorai/vchain/internal/models"
)

// Errors returned by Expand.
var (
	ErrNoSeeds      = errors.New("at least one seed identifier is required")
	ErrInvalidDepth = errors.New("max depth must be at least 1")
)

// Frontier is the set of identifiers reachable from the seeds within the depth bound.
type Frontier struct {
	// Order lists every identifier once: seeds first, then each hop's
	// discoveries sorted by identifier.
	Order []string `json:"order"`
	// Depth maps each identifier to the hop at which it was first reached (seeds are 0).
	Depth map[string]int `json:"depth"`
	// Hops is the deepest hop that discovered anything.
	Hops int `json:"hops"`
}

// Contains reports whether id is in the frontier.
func (f *Frontier) Contains(id string) bool {
	_, ok := f.Depth[id]
	return ok
}

// Len returns the number of identifiers in the frontier.
func (f *Frontier) Len() int {
	return len(f.Order)
}

// IDs returns the frontier as a sorted slice.
func (f *Frontier) IDs() []string {
	ids := make([]string, len(f.Order))
	copy(ids, f.Order)
	sort.Strings(ids)

	return ids
}

// supplierIndex maps a parent to the sorted, de-duplicated identifiers of its suppliers.
func supplierIndex(edges []models.Edge) map[string][]string {
	seen := make(map[string]map[string]struct{})

	for i := range edges {
		e := &edges[i]
		if !e.IsSupplier() || e.ParentID == "" || e.CounterpartyID == "" {
			continue
		}

		set, ok := seen[e.ParentID]
		if !ok {
			set = make(map[string]struct{})
			seen[e.ParentID] = set
		}

		set[e.CounterpartyID] = struct{}{}
	}

	index := make(map[string][]string, len(seen))
	for parent, set := range seen {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}

		sort.Strings(ids)
		index[parent] = ids
	}

	return index
}

// Expand performs a breadth-first walk along Supplier edges from seeds.
// Each parent is expanded at most once, so cycles terminate; the walk stops
// at a fixed point or after maxDepth hops, whichever comes first.
func Expand(edges []models.Edge, seeds []string, maxDepth int) (*Frontier, error) {
	if maxDepth < 1 {
		return nil, ErrInvalidDepth
	}

	f := &Frontier{Depth: make(map[string]int)}

	level := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if s == "" || f.Contains(s) {
			continue
		}

		f.Depth[s] = 0
		f.Order = append(f.Order, s)
		level = append(level, s)
	}

	if len(level) == 0 {
		return nil, ErrNoSeeds
	}

	index := supplierIndex(edges)

	for hop := 1; hop <= maxDepth; hop++ {
		var next []string

		for _, parent := range level {
			for _, supplier := range index[parent] {
				if f.Contains(supplier) {
					continue
				}

				f.Depth[supplier] = hop
				next = append(next, supplier)
			}
		}

		if len(next) == 0 {
			break
		}

		sort.Strings(next)
		f.Order = append(f.Order, next...)
		f.Hops = hop
		level = next
	}

	return f, nil
}
