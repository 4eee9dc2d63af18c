// Package bloom provides a probabilistic negative cache for discovered URLs.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter answers "definitely not seen" for URLs without touching the exact
// set behind it.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs with the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records url.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// MaybeSeen returns true if url might have been added.
// False positives are possible; false negatives are not.
func (f *Filter) MaybeSeen(url string) bool {
	return f.f.TestString(url)
}

// TestAndAdd records url and reports whether it might have been added before.
func (f *Filter) TestAndAdd(url string) bool {
	return f.f.TestAndAddString(url)
}

// EstimatedCount returns the approximate number of URLs recorded.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
