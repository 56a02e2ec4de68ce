// Package spatial defines the nearest neighbour index contract used by the label
// interpolator and its default kd-tree implementation.
package spatial

import (
	"fmt"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// Neighbor is one result of a k-NN query: the position of the point in the
// indexed PointSet and its squared distance to the query.
type Neighbor struct {
	Index int
	Dist2 float64
}

// NeighborQueryResult holds the neighbours of one query point ordered by
// ascending (Dist2, Index).
type NeighborQueryResult []Neighbor

// Indices returns the positions of the neighbours in the indexed PointSet
func (r NeighborQueryResult) Indices() []int {
	indices := make([]int, len(r))
	for i, n := range r {
		indices[i] = n.Index
	}
	return indices
}

// Index answers k-NN queries against a fixed set of points. Implementations are
// read-only after construction and safe for concurrent queries.
type Index interface {
	// QueryKNN returns the k nearest indexed points to query. k larger than Len
	// is clamped to Len.
	QueryKNN(query data.Point, k int) (NeighborQueryResult, error)

	// Len returns the number of indexed points
	Len() int
}

// Builder builds an Index over a set of points
type Builder interface {
	Build(points data.PointSet) (Index, error)
}

// BuilderFunc adapts a function to the Builder interface
type BuilderFunc func(points data.PointSet) (Index, error)

func (f BuilderFunc) Build(points data.PointSet) (Index, error) {
	return f(points)
}

// Build returns the default kd-tree index over points
func Build(points data.PointSet) (Index, error) {
	return NewKDTreeBuilder().Build(points)
}

// QueryKNN queries the index for the k nearest neighbours of query
func QueryKNN(index Index, query data.Point, k int) (NeighborQueryResult, error) {
	return index.QueryKNN(query, k)
}

// ClampK validates k against the number of indexed points n and clamps it to n
func ClampK(k, n int) (int, error) {
	if k <= 0 {
		return 0, fmt.Errorf("k must be positive, got %d: %w", k, data.ErrConfiguration)
	}
	if n <= 0 {
		return 0, fmt.Errorf("query on an empty index: %w", data.ErrEmptyInput)
	}
	if k > n {
		return n, nil
	}
	return k, nil
}

// Ranks a before b when it is closer, or equally close with a smaller index
func Less(a, b Neighbor) bool {
	if a.Dist2 != b.Dist2 {
		return a.Dist2 < b.Dist2
	}
	return a.Index < b.Index
}
