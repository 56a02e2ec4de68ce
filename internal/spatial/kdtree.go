package spatial

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// kdPoint is an indexed point stored in the kd-tree. The original position is
// kept because tree construction reorders the backing slice.
type kdPoint struct {
	coords data.Point
	index  int
}

// Compare implements the kdtree.Comparable interface
func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(kdPoint)
	return p.coords[d] - q.coords[d]
}

func (p kdPoint) Dims() int { return 3 }

// Distance returns the squared euclidean distance
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return p.coords.SquaredDistance(c.(kdPoint).coords)
}

// kdPoints satisfies kdtree.Interface
type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints) Len() int                              { return len(p) }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot samples at most pivotSamples elements for the median. The tree shape may
// vary between builds; query results do not, see rankedKeeper.
func (p kdPoints) Pivot(d kdtree.Dim) int {
	plane := kdPlane{kdPoints: p, Dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfRandoms(plane, pivotSamples))
}

const pivotSamples = 100

// kdPlane implements sort.Interface and kdtree.SortSlicer along one dimension
type kdPlane struct {
	kdPoints
	kdtree.Dim
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].coords[p.Dim] < p.kdPoints[j].coords[p.Dim]
}

func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	return kdPlane{kdPoints: p.kdPoints[start:end], Dim: p.Dim}
}

func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}

// KDTreeIndex is an Index backed by a gonum k-d tree
type KDTreeIndex struct {
	tree *kdtree.Tree
	size int
}

type kdTreeBuilder struct{}

// NewKDTreeBuilder returns a Builder producing KDTreeIndex instances
func NewKDTreeBuilder() Builder {
	return kdTreeBuilder{}
}

func (kdTreeBuilder) Build(points data.PointSet) (Index, error) {
	return NewKDTreeIndex(points)
}

// NewKDTreeIndex builds a k-d tree over a copy of points
func NewKDTreeIndex(points data.PointSet) (*KDTreeIndex, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("cannot build kd-tree: %w", data.ErrEmptyInput)
	}

	items := make(kdPoints, len(points))
	for i, p := range points {
		items[i] = kdPoint{coords: p, index: i}
	}

	return &KDTreeIndex{
		tree: kdtree.New(items, false),
		size: len(points),
	}, nil
}

func (idx *KDTreeIndex) Len() int {
	return idx.size
}

func (idx *KDTreeIndex) QueryKNN(query data.Point, k int) (NeighborQueryResult, error) {
	k, err := ClampK(k, idx.size)
	if err != nil {
		return nil, err
	}

	keeper := newRankedKeeper(k)
	idx.tree.NearestSet(keeper, kdPoint{coords: query, index: -1})

	result := make(NeighborQueryResult, 0, k)
	for _, c := range keeper.rankedHeap {
		if c.Comparable == nil {
			continue
		}
		result = append(result, Neighbor{Index: c.Comparable.(kdPoint).index, Dist2: c.Dist})
	}
	sortNeighbors(result)

	return result, nil
}
