// Package bloom provides fingerprint deduplication using Bloom filters.
// Large import batches use it to skip store round-trips for fingerprints
// already seen in the same batch; the store's uniqueness constraint
// remains the authority.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter for fingerprint deduplication.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected fingerprints
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds a fingerprint to the filter.
func (f *Filter) Add(fingerprint string) {
	f.f.AddString(fingerprint)
}

// Test returns true if the fingerprint might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(fingerprint string) bool {
	return f.f.TestString(fingerprint)
}

// EstimatedCount returns the approximate number of fingerprints in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
