package ledger

import (
	"sort"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestHeap_ExtractsInComparatorOrder(t *testing.T) {
	values := []int{5, 1, 4, 2, 8, 3, 7, 6}
	less := func(a, b int) bool { return a < b }

	makeHeap(values, less)

	// Popping a max-heap yields descending order.
	var got []int
	for len(values) > 0 {
		var top int
		values, top = popHeap(values, less)
		got = append(got, top)
	}

	assert.Equal(t, []int{8, 7, 6, 5, 4, 3, 2, 1}, got)
}

func TestHeap_SingleAndEmptyBoundaries(t *testing.T) {
	less := func(a, b int) bool { return a < b }

	single := []int{42}
	makeHeap(single, less)
	rest, top := popHeap(single, less)
	assert.Equal(t, 42, top)
	assert.Equal(t, 0, len(rest))

	empty := []int{}
	makeHeap(empty, less) // must not panic
}

func TestHeap_Duplicates(t *testing.T) {
	values := []int{3, 1, 3, 2, 3}
	less := func(a, b int) bool { return a < b }

	makeHeap(values, less)

	var got []int
	for len(values) > 0 {
		var top int
		values, top = popHeap(values, less)
		got = append(got, top)
	}

	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i] > got[j] }))
	assert.Equal(t, 5, len(got))
}
