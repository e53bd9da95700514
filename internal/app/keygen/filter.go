package keygen

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// IssuedFilter is a concurrency-safe bloom filter of public keys already in
// use. False positives only cost an extra draw; a nil filter contains nothing.
type IssuedFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewIssuedFilter sizes the filter for expected keys at the given false-positive rate.
func NewIssuedFilter(expected uint, fpRate float64) *IssuedFilter {
	if expected == 0 {
		expected = 1
	}
	return &IssuedFilter{filter: bloom.NewWithEstimates(expected, fpRate)}
}

func (f *IssuedFilter) Add(key string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.filter.AddString(key)
	f.mu.Unlock()
}

// MayContain reports whether key might have been added.
func (f *IssuedFilter) MayContain(key string) bool {
	if f == nil {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(key)
}
