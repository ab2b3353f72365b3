package sampling

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/cnclabs/kgsample/pkg/knowledge"
)

// ErrInvalidErrorRate is returned for a bloom filter error rate outside (0, 1).
var ErrInvalidErrorRate = errors.New("sampling: bloom filter error rate must be in (0, 1)")

// Filterer reports whether a triple is known to be true.
type Filterer interface {
	Contains(t knowledge.Triple) bool
}

// ExactFilterer keeps every known triple in a hash set.
type ExactFilterer struct {
	set map[knowledge.Triple]struct{}
}

// NewExactFilterer indexes the union of the given triple sets, e.g. the
// training, validation and test triples.
func NewExactFilterer(sets ...[]knowledge.Triple) *ExactFilterer {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	f := &ExactFilterer{set: make(map[knowledge.Triple]struct{}, n)}
	for _, s := range sets {
		for _, t := range s {
			f.set[t] = struct{}{}
		}
	}
	return f
}

// Contains implements Filterer.
func (f *ExactFilterer) Contains(t knowledge.Triple) bool {
	_, ok := f.set[t]
	return ok
}

// Len returns the number of distinct known triples.
func (f *ExactFilterer) Len() int {
	return len(f.set)
}

// BloomFilterer is a memory-bounded Filterer. It never misses a known
// triple but may flag an unknown one with probability about the configured
// error rate.
type BloomFilterer struct {
	filter    *bloom.BloomFilter
	errorRate float64
}

// NewBloomFilterer sizes a bloom filter for the given triples and error rate.
func NewBloomFilterer(triples []knowledge.Triple, errorRate float64) (*BloomFilterer, error) {
	if errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidErrorRate, errorRate)
	}
	expected := uint(max(len(triples), 1))
	f := &BloomFilterer{
		filter:    bloom.NewWithEstimates(expected, errorRate),
		errorRate: errorRate,
	}
	for _, t := range triples {
		f.filter.Add(tripleKey(t))
	}
	return f, nil
}

// Contains implements Filterer.
func (f *BloomFilterer) Contains(t knowledge.Triple) bool {
	return f.filter.Test(tripleKey(t))
}

// ErrorRate returns the configured false positive rate.
func (f *BloomFilterer) ErrorRate() float64 {
	return f.errorRate
}

func tripleKey(t knowledge.Triple) []byte {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.Head))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(t.Relation))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(t.Tail))
	return buf[:]
}
