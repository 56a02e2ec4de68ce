package octree

import (
	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/geometry"
)

type ITree interface {
	Build() error
	GetRootNode() INode
	IsBuilt() bool
	Clear() bool
	// Adds a Point to the Tree, index is its position in the source PointSet
	AddPoint(coordinate data.Point, index int)
}

type INode interface {
	AddDataPoint(element *IndexedPoint)
	IsRoot() bool
	GetChildren() [8]*OctreeNode
	GetPoints() []*IndexedPoint
	TotalNumberOfPoints() int64
	NumberOfPoints() int32
	IsLeaf() bool
	GetParent() *OctreeNode
	GetBoundingBox() *geometry.BoundingBox
	GetDepth() int
}

// A point stored in the tree together with its position in the source PointSet
type IndexedPoint struct {
	data.Point
	Index int
}
