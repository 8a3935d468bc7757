package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/persistorai/vchain/internal/domain"
	"github.com/persistorai/vchain/internal/models"
)

// CopyReport summarises a Copy run.
type CopyReport struct {
	Collection     string `json:"collection"`
	ParentsRead    int    `json:"parents_read"`
	ParentsCopied  int    `json:"parents_copied"`
	ParentsSkipped int    `json:"parents_skipped"`
	EdgesCopied    int    `json:"edges_copied"`
	BadRead        int    `json:"bad_read"`
	BadCopied      int    `json:"bad_copied"`
}

// Copy replicates a collection from src into dst. Parents already present
// in dst are skipped, and so are bad records dst already holds with the same
// identifier, reason and recording time, so the copy can be re-run safely.
func Copy(ctx context.Context, src, dst domain.EdgeStore, collection string) (CopyReport, error) {
	r := CopyReport{Collection: collection}

	edges, err := src.LoadAll(ctx, collection)
	if err != nil {
		return r, fmt.Errorf("reading source edges: %w", err)
	}

	byParent := make(map[string][]models.Edge)
	for i := range edges {
		byParent[edges[i].ParentID] = append(byParent[edges[i].ParentID], edges[i])
	}

	parents := make([]string, 0, len(byParent))
	for p := range byParent {
		parents = append(parents, p)
	}

	sort.Strings(parents)
	r.ParentsRead = len(parents)

	for _, p := range parents {
		if err := ctx.Err(); err != nil {
			return r, err
		}

		res, err := dst.InsertBatch(ctx, collection, byParent[p])
		if err != nil {
			return r, fmt.Errorf("copying parent %q: %w", p, err)
		}

		if res.Duplicate {
			r.ParentsSkipped++
			continue
		}

		r.ParentsCopied++
		r.EdgesCopied += res.Inserted
	}

	bad, err := src.LoadBad(ctx, collection)
	if err != nil {
		return r, fmt.Errorf("reading source bad identifiers: %w", err)
	}

	r.BadRead = len(bad)

	existing, err := dst.LoadBad(ctx, collection)
	if err != nil {
		return r, fmt.Errorf("reading destination bad identifiers: %w", err)
	}

	have := make(map[badKey]struct{}, len(existing))
	for _, b := range existing {
		have[keyOf(b)] = struct{}{}
		have[badKey{identifier: b.Identifier, reason: b.Reason}] = struct{}{}
	}

	for _, b := range bad {
		if _, ok := have[keyOf(b)]; ok {
			continue
		}

		if err := dst.InsertBad(ctx, collection, b); err != nil {
			return r, fmt.Errorf("copying bad identifier %q: %w", b.Identifier, err)
		}

		have[keyOf(b)] = struct{}{}
		have[badKey{identifier: b.Identifier, reason: b.Reason}] = struct{}{}
		r.BadCopied++
	}

	return r, nil
}

// badKey identifies one bad record. Times are kept at microsecond precision,
// the finest every backend stores.
type badKey struct {
	identifier string
	reason     models.Reason
	recordedAt time.Time
}

// keyOf keys b. A legacy record without a recording time keys on identifier
// and reason alone, since dst stamps it on insert.
func keyOf(b models.BadIdentifier) badKey {
	k := badKey{identifier: b.Identifier, reason: b.Reason}
	if !b.RecordedAt.IsZero() {
		k.recordedAt = b.RecordedAt.UTC().Truncate(time.Microsecond)
	}

	return k
}
