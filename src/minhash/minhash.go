// Package minhash implements the bounded bottom-k MinHash heap used for containment screening.
package minhash

import (
	"container/heap"
	"math"
	"sort"
)

// MinHashHeap keeps the K smallest distinct hash values seen so far.
// The priority queue holds the current maximum at index 0 so it can be
// evicted when a smaller hash arrives; the counts map is the membership
// set and also records how many times each kept hash has been offered.
type MinHashHeap struct {
	use64           bool
	cardinalityMax  int
	counts          map[uint64]uint32
	queue           *intHeap
	multiplicitySum uint64
	bloomFilter     *BloomFilter
}

// NewMinHashHeap is the constructor for a MinHashHeap. A nil bloom filter gives
// plain bottom-k semantics; with a filter attached, a hash is only admitted
// once it has been seen twice.
func NewMinHashHeap(use64 bool, cardinalityMaximum int, bloomFilter *BloomFilter) *MinHashHeap {
	newHeap := &MinHashHeap{
		use64:          use64,
		cardinalityMax: cardinalityMaximum,
		counts:         make(map[uint64]uint32, cardinalityMaximum),
		queue:          &intHeap{},
		bloomFilter:    bloomFilter,
	}
	heap.Init(newHeap.queue)
	return newHeap
}

// TryInsert offers a hash value to the heap
func (MinHashHeap *MinHashHeap) TryInsert(hv uint64) {

	// an already-kept hash just has its multiplicity bumped
	if count, ok := MinHashHeap.counts[hv]; ok {
		MinHashHeap.counts[hv] = count + 1
		MinHashHeap.multiplicitySum++
		return
	}

	// if there is a bloom filter attached, hold back hashes until their second appearance
	if MinHashHeap.bloomFilter != nil && !MinHashHeap.bloomFilter.Check(hv) {
		MinHashHeap.bloomFilter.Add(hv)
		return
	}

	// if the heap isn't full yet, go ahead and add the hash
	if len(MinHashHeap.counts) < MinHashHeap.cardinalityMax {
		MinHashHeap.counts[hv] = 1
		MinHashHeap.multiplicitySum++
		heap.Push(MinHashHeap.queue, hv)
		return
	}

	// otherwise only keep the incoming hash if it beats the current maximum
	top := (*MinHashHeap.queue)[0]
	if hv >= top {
		return
	}

	// evict the maximum, keeping the membership set consistent with the queue
	MinHashHeap.multiplicitySum -= uint64(MinHashHeap.counts[top])
	delete(MinHashHeap.counts, top)
	MinHashHeap.counts[hv] = 1
	MinHashHeap.multiplicitySum++

	// replace the largest value currently in the queue with the new hash
	// the heap Fix method re-establishes the heap ordering after the element at index 0 has changed its value
	(*MinHashHeap.queue)[0] = hv
	heap.Fix(MinHashHeap.queue, 0)
}

// ToSortedList returns the kept hashes in ascending order
func (MinHashHeap *MinHashHeap) ToSortedList() []uint64 {
	sketch := make([]uint64, 0, len(MinHashHeap.counts))
	for hv := range MinHashHeap.counts {
		sketch = append(sketch, hv)
	}
	sort.Slice(sketch, func(i, j int) bool { return sketch[i] < sketch[j] })
	return sketch
}

// Cardinality returns the number of distinct hashes currently kept
func (MinHashHeap *MinHashHeap) Cardinality() int {
	return len(MinHashHeap.counts)
}

// EstimateSetSize estimates the cardinality of the hashed set as 2^W * |heap| / max(heap)
func (MinHashHeap *MinHashHeap) EstimateSetSize() float64 {
	if len(MinHashHeap.counts) == 0 {
		return 0
	}
	hashBits := 32.0
	if MinHashHeap.use64 {
		hashBits = 64.0
	}
	return math.Pow(2.0, hashBits) * float64(len(MinHashHeap.counts)) / float64((*MinHashHeap.queue)[0])
}

// EstimateMultiplicity estimates the mean multiplicity of the kept hashes (a mixture coverage diagnostic)
func (MinHashHeap *MinHashHeap) EstimateMultiplicity() float64 {
	if len(MinHashHeap.counts) == 0 {
		return 0
	}
	return float64(MinHashHeap.multiplicitySum) / float64(len(MinHashHeap.counts))
}
