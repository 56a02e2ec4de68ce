package spatial

import (
	"container/heap"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// rankedKeeper is a kdtree.Keeper retaining the k best candidates ordered by
// (distance, original index). Equal distances are resolved by index so that the
// k-th neighbour is the same whatever the tree traversal order. The kd search
// descends into a far branch when the plane distance equals the current worst
// distance, which makes the tie resolution exact.
type rankedKeeper struct {
	rankedHeap
}

// rankedHeap is a max heap: element 0 is the worst retained candidate. A nil
// Comparable is the sentinel and ranks after everything.
type rankedHeap []kdtree.ComparableDist

func newRankedKeeper(k int) *rankedKeeper {
	h := make(rankedHeap, 1, k)
	h[0].Dist = math.Inf(1)
	return &rankedKeeper{h}
}

func (h *rankedHeap) Max() kdtree.ComparableDist { return (*h)[0] }
func (h *rankedHeap) Len() int                   { return len(*h) }
func (h *rankedHeap) Less(i, j int) bool         { return worse((*h)[i], (*h)[j]) }
func (h *rankedHeap) Swap(i, j int)              { (*h)[i], (*h)[j] = (*h)[j], (*h)[i] }
func (h *rankedHeap) Push(x interface{})         { *h = append(*h, x.(kdtree.ComparableDist)) }
func (h *rankedHeap) Pop() (i interface{}) {
	i, *h = (*h)[len(*h)-1], (*h)[:len(*h)-1]
	return i
}

// Keep retains c when it ranks before the current worst candidate
func (k *rankedKeeper) Keep(c kdtree.ComparableDist) {
	if !worse(k.rankedHeap[0], c) {
		return
	}
	if len(k.rankedHeap) == cap(k.rankedHeap) {
		k.rankedHeap[0] = c
		heap.Fix(k, 0)
		return
	}
	heap.Push(k, c)
}

// worse reports whether a ranks strictly after b
func worse(a, b kdtree.ComparableDist) bool {
	if a.Comparable == nil {
		return b.Comparable != nil
	}
	if b.Comparable == nil {
		return false
	}
	if a.Dist != b.Dist {
		return a.Dist > b.Dist
	}
	return a.Comparable.(kdPoint).index > b.Comparable.(kdPoint).index
}

func sortNeighbors(neighbors NeighborQueryResult) {
	sort.Slice(neighbors, func(i, j int) bool {
		return Less(neighbors[i], neighbors[j])
	})
}
