package pool

// slotHeap implements heap.Interface for a min-heap of empty index-table
// slots. The lowest slot number is at the top, so new entries fill the
// front of the table first and stay visible to the fast-path cache
// prefix for as long as possible.
type slotHeap []IndexLoc

func (h slotHeap) Len() int           { return len(h) }
func (h slotHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *slotHeap) Push(x any) {
	*h = append(*h, x.(IndexLoc)) //nolint:errcheck // heap.Interface contract guarantees type
}

func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
