package screen

import (
	"sort"
	"sync/atomic"

	"github.com/sift-bio/sift/src/sketch"
)

// RefIndex is the inverted index from sketch hash to reference indices,
// together with the shared-hash counters populated during streaming. The key
// set is fixed at construction: counter slots are pointers so the atomics
// never move, and unknown hashes are ignored rather than inserted.
type RefIndex struct {
	lookup map[uint64][]int
	counts map[uint64]*uint32
	sorted []uint64
}

// NewRefIndex builds the index by walking the reference signatures. Bucket
// order is ascending reference index, which pins the iteration order relied
// on by winner-takes-all reallocation.
func NewRefIndex(sk *sketch.Sketch) *RefIndex {
	index := &RefIndex{
		lookup: make(map[uint64][]int),
		counts: make(map[uint64]*uint32),
	}
	for i, ref := range sk.References {
		for _, hv := range ref.Hashes {
			if _, ok := index.counts[hv]; !ok {
				index.counts[hv] = new(uint32)
			}
			index.lookup[hv] = append(index.lookup[hv], i)
		}
	}
	index.sorted = make([]uint64, 0, len(index.lookup))
	for hv := range index.lookup {
		index.sorted = append(index.sorted, hv)
	}
	sort.Slice(index.sorted, func(i, j int) bool { return index.sorted[i] < index.sorted[j] })
	return index
}

// Increment bumps the counter for a hash if it belongs to the reference
// sketch, and does nothing otherwise. Safe for concurrent use.
func (RefIndex *RefIndex) Increment(hv uint64) {
	if counter, ok := RefIndex.counts[hv]; ok {
		atomic.AddUint32(counter, 1)
	}
}

// Count returns the observed multiplicity of a sketch hash
func (RefIndex *RefIndex) Count(hv uint64) uint32 {
	counter, ok := RefIndex.counts[hv]
	if !ok {
		return 0
	}
	return atomic.LoadUint32(counter)
}

// Bucket returns the reference indices containing a sketch hash
func (RefIndex *RefIndex) Bucket(hv uint64) []int {
	return RefIndex.lookup[hv]
}

// Distinct returns the number of distinct hashes across all signatures
func (RefIndex *RefIndex) Distinct() int {
	return len(RefIndex.lookup)
}

// SortedHashes returns every indexed hash in ascending order
func (RefIndex *RefIndex) SortedHashes() []uint64 {
	return RefIndex.sorted
}
