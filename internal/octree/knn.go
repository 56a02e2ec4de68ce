package octree

import (
	"container/heap"
	"sort"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
)

// nodeQueue is a min heap of nodes keyed by the squared distance of their box to the query
type nodeQueue []nodeEntry

type nodeEntry struct {
	node  *OctreeNode
	dist2 float64
}

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].dist2 < q[j].dist2 }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeEntry)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	e := old[len(old)-1]
	*q = old[:len(old)-1]
	return e
}

// candidates is a max heap: element 0 is the worst retained neighbour
type candidates []spatial.Neighbor

func (c candidates) Len() int            { return len(c) }
func (c candidates) Less(i, j int) bool  { return spatial.Less(c[j], c[i]) }
func (c candidates) Swap(i, j int)       { c[i], c[j] = c[j], c[i] }
func (c *candidates) Push(x interface{}) { *c = append(*c, x.(spatial.Neighbor)) }
func (c *candidates) Pop() interface{} {
	old := *c
	e := old[len(old)-1]
	*c = old[:len(old)-1]
	return e
}

// best first search. A node is skipped only when its box is strictly farther than
// the worst kept neighbour, so points at an equal distance are still ranked by index.
func searchKNN(root *OctreeNode, query data.Point, k int) spatial.NeighborQueryResult {
	best := make(candidates, 0, k)
	queue := nodeQueue{{node: root, dist2: root.boundingBox.SquaredDistance(query)}}

	for queue.Len() > 0 {
		entry := heap.Pop(&queue).(nodeEntry)
		if len(best) == k && entry.dist2 > best[0].Dist2 {
			break
		}

		if !entry.node.leaf {
			for _, child := range entry.node.children {
				if child == nil || child.totalNumberOfPoints == 0 {
					continue
				}
				heap.Push(&queue, nodeEntry{node: child, dist2: child.boundingBox.SquaredDistance(query)})
			}
			continue
		}

		for _, p := range entry.node.points {
			n := spatial.Neighbor{Index: p.Index, Dist2: query.SquaredDistance(p.Point)}
			if len(best) < k {
				heap.Push(&best, n)
			} else if spatial.Less(n, best[0]) {
				best[0] = n
				heap.Fix(&best, 0)
			}
		}
	}

	result := spatial.NeighborQueryResult(best)
	sort.Slice(result, func(i, j int) bool { return spatial.Less(result[i], result[j]) })
	return result
}
