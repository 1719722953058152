package dedup

import (
	"context"
	"fmt"
	"sort"

	"github.com/fwojciec/plandok"
)

// Reconciler removes duplicate documents that were inserted before
// fingerprint uniqueness was enforced at the storage boundary.
type Reconciler struct {
	Catalog plandok.CatalogService
}

// ReconcileResult reports the outcome of one reconciliation pass.
type ReconcileResult struct {
	Scanned int
	Removed []string // removed document ids
}

// Reconcile groups all documents by recomputed fingerprint and, for each
// group with more than one member, keeps the earliest-created document
// and deletes the rest. Ties on creation time break by smallest id so
// repeated runs make the same choice. The pass is idempotent: a second
// run over a reconciled catalog removes nothing.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	docs, err := r.Catalog.List(ctx, plandok.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	groups := make(map[string][]*plandok.Document)
	for _, doc := range docs {
		fp := Fingerprint(doc.Title, doc.URL, doc.Category)
		groups[fp] = append(groups[fp], doc)
	}

	result := &ReconcileResult{Scanned: len(docs)}
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID < group[j].ID
		})
		for _, doc := range group[1:] {
			if err := r.Catalog.Delete(ctx, doc.ID); err != nil {
				return nil, fmt.Errorf("delete duplicate %s: %w", doc.ID, err)
			}
			result.Removed = append(result.Removed, doc.ID)
		}
	}

	sort.Strings(result.Removed)
	return result, nil
}
