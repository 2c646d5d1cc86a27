package ledger

// In-place binary heap with a caller-supplied strict comparator. The booking
// methods use it to extract candidate lots in FIFO or LIFO order without
// sorting the whole slice: building the heap is O(n) and each extraction
// O(log n), so reducing k lots out of n costs O(n + k log n).
//
// The heap is a max-heap with respect to less, i.e. the element for which
// less(root, x) is false for all x sits at the root. Callers pass a
// comparator that orders "consume me later" elements as greater.

// makeHeap arranges s into heap order.
func makeHeap[T any](s []T, less func(a, b T) bool) {
	for i := len(s)/2 - 1; i >= 0; i-- {
		siftDown(s, i, len(s), less)
	}
}

// popHeap swaps the root to the end of the slice, restores heap order over
// the remaining prefix, and returns the shortened slice plus the extracted
// element. The slice must be non-empty and in heap order.
func popHeap[T any](s []T, less func(a, b T) bool) ([]T, T) {
	n := len(s) - 1
	s[0], s[n] = s[n], s[0]
	siftDown(s[:n], 0, n, less)
	return s[:n], s[n]
}

func siftDown[T any](s []T, root, n int, less func(a, b T) bool) {
	for {
		child := 2*root + 1
		if child >= n {
			return
		}
		if right := child + 1; right < n && less(s[child], s[right]) {
			child = right
		}
		if !less(s[root], s[child]) {
			return
		}
		s[root], s[child] = s[child], s[root]
		root = child
	}
}
