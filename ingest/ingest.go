// Package ingest accepts batches of proposed documents from seeding and
// import collaborators, computing fingerprints and inserting through the
// catalog's duplicate-rejecting API.
package ingest

import (
	"context"

	"github.com/fwojciec/plandok"
	"github.com/fwojciec/plandok/bloom"
	"github.com/fwojciec/plandok/dedup"
)

// Bloom filter sizing for intra-batch deduplication.
const (
	expectedBatchSize = 10000
	falsePositiveRate = 0.01
)

// Ingester batch-inserts proposed documents.
type Ingester struct {
	Catalog plandok.CatalogService
}

// ItemResult reports the outcome of one proposed document. Exactly one of
// Accepted or Rejected applies; rejections carry the error code and, for
// duplicates, the id of the document they collided with.
type ItemResult struct {
	Title      string `json:"title"`
	Accepted   bool   `json:"accepted"`
	ID         string `json:"id,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	ExistingID string `json:"existingId,omitempty"`
}

// Batch inserts each proposed document in order and returns one result
// per item. A rejected item never aborts the batch. Fingerprints already
// proposed earlier in the same batch are rejected without a store
// round-trip; the store's uniqueness constraint stays authoritative for
// everything the filter lets through.
func (ing *Ingester) Batch(ctx context.Context, proposed []*plandok.Document) ([]ItemResult, error) {
	seen := bloom.NewFilter(expectedBatchSize, falsePositiveRate)
	results := make([]ItemResult, 0, len(proposed))

	for _, doc := range proposed {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := ItemResult{Title: doc.Title}

		if err := doc.Validate(); err != nil {
			result.Code = plandok.ErrorCode(err)
			result.Message = plandok.ErrorMessage(err)
			results = append(results, result)
			continue
		}

		fingerprint := dedup.Fingerprint(doc.Title, doc.URL, doc.Category)
		if seen.Test(fingerprint) {
			// Possible intra-batch duplicate. The filter can misfire, so
			// confirm against the store before rejecting.
			if existing, err := ing.Catalog.FindByFingerprint(ctx, fingerprint); err == nil {
				result.Code = plandok.ECONFLICT
				result.Message = "duplicate document in batch"
				result.ExistingID = existing.ID
				results = append(results, result)
				continue
			}
		}

		if err := ing.Catalog.Insert(ctx, doc); err != nil {
			result.Code = plandok.ErrorCode(err)
			result.Message = plandok.ErrorMessage(err)
			if result.Code == plandok.ECONFLICT {
				if existing, lookupErr := ing.Catalog.FindByFingerprint(ctx, fingerprint); lookupErr == nil {
					result.ExistingID = existing.ID
				}
			}
			results = append(results, result)
			continue
		}

		seen.Add(fingerprint)
		result.Accepted = true
		result.ID = doc.ID
		results = append(results, result)
	}

	return results, nil
}
