package store

import (
	"context"

	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/models"
)

// Matcher selects edges; *selection.Predicate satisfies it.
type Matcher interface {
	Match(e models.Edge) bool
}

// LoadMatching loads the collection and keeps the edges m accepts, in load order.
// A nil matcher keeps everything.
func LoadMatching(ctx context.Context, s domain.EdgeStore, collection string, m Matcher) ([]models.Edge, error) {
	edges, err := s.LoadAll(ctx, collection)
	if err != nil {
		return nil, err
	}

	if m == nil {
		return edges, nil
	}

	out := make([]models.Edge, 0, len(edges))
	for i := range edges {
		if m.Match(edges[i]) {
			out = append(out, edges[i])
		}
	}

	return out, nil
}
