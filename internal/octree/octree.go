package octree

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/geometry"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
)

const (
	DefaultMaxPointsPerNode = 32
	// depth cap for leaves holding many coincident points
	DefaultMaxDepth = 24
)

// Octree is a point octree answering k-NN queries. Points are added with AddPoint
// and the tree is built once; after Build it is read-only and safe for concurrent
// queries.
type Octree struct {
	root             *OctreeNode
	points           data.PointSet
	maxPointsPerNode int
	maxDepth         int
	built            bool
	sync.RWMutex
}

var _ ITree = (*Octree)(nil)
var _ spatial.Index = (*Octree)(nil)

// Creates a new empty Octree. Non positive arguments fall back to the defaults.
func NewOctree(maxPointsPerNode, maxDepth int) *Octree {
	if maxPointsPerNode <= 0 {
		maxPointsPerNode = DefaultMaxPointsPerNode
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Octree{
		maxPointsPerNode: maxPointsPerNode,
		maxDepth:         maxDepth,
		points:           make(data.PointSet, 0),
	}
}

// Adds a Point to the tree. Points added after Build are ignored.
func (t *Octree) AddPoint(coordinate data.Point, index int) {
	t.Lock()
	defer t.Unlock()
	if t.built {
		return
	}
	for len(t.points) <= index {
		t.points = append(t.points, data.Point{})
	}
	t.points[index] = coordinate
}

// Builds the tree over the points added so far
func (t *Octree) Build() error {
	t.Lock()
	defer t.Unlock()

	if t.built {
		return errors.New("octree already built")
	}
	if len(t.points) == 0 {
		return fmt.Errorf("cannot build octree: %w", data.ErrEmptyInput)
	}

	bbox := cubeAround(geometry.NewBoundingBoxFromPoints(t.points))
	t.root = NewOctreeNode(nil, bbox, 0, t.maxPointsPerNode, t.maxDepth, true)
	for i, p := range t.points {
		t.root.AddDataPoint(&IndexedPoint{Point: p, Index: i})
	}
	t.built = true

	return nil
}

func (t *Octree) GetRootNode() INode {
	t.RLock()
	defer t.RUnlock()
	if t.root == nil {
		return nil
	}
	return t.root
}

func (t *Octree) IsBuilt() bool {
	t.RLock()
	defer t.RUnlock()
	return t.built
}

// Removes all points and nodes from the tree
func (t *Octree) Clear() bool {
	t.Lock()
	defer t.Unlock()
	t.root = nil
	t.points = make(data.PointSet, 0)
	t.built = false
	return true
}

func (t *Octree) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.points)
}

// QueryKNN returns the k nearest points to query ranked by (distance, index)
func (t *Octree) QueryKNN(query data.Point, k int) (spatial.NeighborQueryResult, error) {
	t.RLock()
	defer t.RUnlock()

	if !t.built {
		return nil, errors.New("octree not built")
	}
	k, err := spatial.ClampK(k, len(t.points))
	if err != nil {
		return nil, err
	}

	return searchKNN(t.root, query, k), nil
}

// the split planes of a cube keep children close to cubic. The cube grows from the
// minimum corner and its upper bound never falls below the box maximum, so every
// point of the box stays inside the root.
func cubeAround(b *geometry.BoundingBox) *geometry.BoundingBox {
	side := max(b.Xmax-b.Xmin, b.Ymax-b.Ymin, b.Zmax-b.Zmin)
	return geometry.NewBoundingBox(
		b.Xmin, max(b.Xmin+side, b.Xmax),
		b.Ymin, max(b.Ymin+side, b.Ymax),
		b.Zmin, max(b.Zmin+side, b.Zmax),
	)
}

type octreeBuilder struct {
	maxPointsPerNode int
}

// NewOctreeBuilder returns a spatial.Builder producing Octree indexes
func NewOctreeBuilder(maxPointsPerNode int) spatial.Builder {
	return octreeBuilder{maxPointsPerNode: maxPointsPerNode}
}

func (b octreeBuilder) Build(points data.PointSet) (spatial.Index, error) {
	tree := NewOctree(b.maxPointsPerNode, DefaultMaxDepth)
	if err := fill(tree, points); err != nil {
		return nil, err
	}
	return tree, nil
}

// adds the points to the tree in order and builds it
func fill(tree ITree, points data.PointSet) error {
	for i, p := range points {
		tree.AddPoint(p, i)
	}
	return tree.Build()
}
