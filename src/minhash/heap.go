package minhash

// intHeap is a heap of uint64s (we're satisfying the heap interface: https://golang.org/pkg/container/heap/)
type intHeap []uint64

// the less method is returning the larger value, so that it is at index position 0 in the heap
func (intHeap intHeap) Less(i, j int) bool { return intHeap[i] > intHeap[j] }
func (intHeap intHeap) Swap(i, j int)      { intHeap[i], intHeap[j] = intHeap[j], intHeap[i] }
func (intHeap intHeap) Len() int           { return len(intHeap) }

// Push is a method to add an element to the heap
func (intHeap *intHeap) Push(x interface{}) {
	// dereference the pointer to modify the slice's length, not just its contents
	*intHeap = append(*intHeap, x.(uint64))
}

// Pop is a method to remove an element from the heap
func (intHeap *intHeap) Pop() interface{} {
	old := *intHeap
	n := len(old)
	x := old[n-1]
	*intHeap = old[0 : n-1]
	return x
}
