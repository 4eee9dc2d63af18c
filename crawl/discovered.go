package crawl

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/pagecheck/bloom"
)

// Discovered set configuration.
const (
	// discoveredExpectedURLs is the expected number of URLs for Bloom filter sizing.
	discoveredExpectedURLs = 10000
	// discoveredFalsePositiveRate is the acceptable false positive rate of the filter.
	discoveredFalsePositiveRate = 0.01
)

// Discovered is the insert-only set of URLs already queued during a crawl.
// A Bloom filter answers most "new URL" checks; possible hits are confirmed
// against an exact set so that no URL is ever dropped by a false positive.
// It is safe for concurrent use by multiple goroutines.
type Discovered struct {
	mu     sync.Mutex
	filter *bloom.Filter
	exact  map[uint64]struct{}
}

// NewDiscovered returns an empty Discovered set.
func NewDiscovered() *Discovered {
	return &Discovered{
		filter: bloom.NewFilter(discoveredExpectedURLs, discoveredFalsePositiveRate),
		exact:  make(map[uint64]struct{}),
	}
}

// Add inserts url and returns false if it was already present.
func (d *Discovered) Add(url string) bool {
	key := xxhash.Sum64String(url)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestAndAdd(url) {
		if _, ok := d.exact[key]; ok {
			return false
		}
	}
	d.exact[key] = struct{}{}
	return true
}

// Has reports whether url was added.
func (d *Discovered) Has(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.filter.MaybeSeen(url) {
		return false
	}
	_, ok := d.exact[xxhash.Sum64String(url)]
	return ok
}

// Len returns the number of URLs added.
func (d *Discovered) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.exact)
}
