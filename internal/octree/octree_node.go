package octree

import (
	"github.com/ecopia-map/dense_labeler/internal/geometry"
)

// Models a node of the octree, which can either be a leaf (a node without children nodes) or not.
// Leaves store up to maxPointsPerNode points. When a leaf overflows it is split: eight children
// are created over the octants of its bounding box and the stored points are pushed down to them.
type OctreeNode struct {
	root                bool
	parent              *OctreeNode
	boundingBox         *geometry.BoundingBox
	children            [8]*OctreeNode
	points              []*IndexedPoint
	depth               int
	maxPointsPerNode    int
	maxDepth            int
	totalNumberOfPoints int64
	leaf                bool
}

// Instantiates a new OctreeNode
func NewOctreeNode(
	parent *OctreeNode,
	boundingBox *geometry.BoundingBox,
	depth int,
	maxPointsPerNode int,
	maxDepth int,
	root bool,
) *OctreeNode {
	return &OctreeNode{
		parent:           parent,                   // the parent node
		root:             root,                     // if the node is the tree root
		boundingBox:      boundingBox,              // bounding box of the node
		depth:            depth,                    // distance from the root
		maxPointsPerNode: maxPointsPerNode,         // split threshold for leaves
		maxDepth:         maxDepth,                 // leaves at this depth never split
		points:           make([]*IndexedPoint, 0), // points stored in this node, leaves only
		leaf:             true,
	}
}

// Adds a Point to the OctreeNode, splitting the node if it overflows
func (n *OctreeNode) AddDataPoint(point *IndexedPoint) {
	if point == nil {
		return
	}

	n.totalNumberOfPoints++

	if !n.leaf {
		n.addPointToChildren(point)
		return
	}

	n.points = append(n.points, point)
	if len(n.points) > n.maxPointsPerNode && n.depth < n.maxDepth {
		n.split()
	}
}

func (n *OctreeNode) GetBoundingBox() *geometry.BoundingBox {
	return n.boundingBox
}

func (n *OctreeNode) GetChildren() [8]*OctreeNode {
	return n.children
}

func (n *OctreeNode) GetPoints() []*IndexedPoint {
	return n.points
}

func (n *OctreeNode) GetParent() *OctreeNode {
	return n.parent
}

func (n *OctreeNode) GetDepth() int {
	return n.depth
}

func (n *OctreeNode) TotalNumberOfPoints() int64 {
	return n.totalNumberOfPoints
}

func (n *OctreeNode) NumberOfPoints() int32 {
	return int32(len(n.points))
}

func (n *OctreeNode) IsLeaf() bool {
	return n.leaf
}

func (n *OctreeNode) IsRoot() bool {
	return n.root
}

// Returns the index of the octant that contains the given Point within this boundingBox
func getOctantFromElement(element *IndexedPoint, bbox *geometry.BoundingBox) uint8 {
	var result uint8 = 0
	if element.X() > bbox.Xmid {
		result += 1
	}
	if element.Y() > bbox.Ymid {
		result += 2
	}
	if element.Z() > bbox.Zmid {
		result += 4
	}
	return result
}

// turns the leaf into a branch and pushes its points to the children
func (n *OctreeNode) split() {
	n.initializeChildren()
	points := n.points
	n.points = nil
	n.leaf = false
	for _, point := range points {
		n.addPointToChildren(point)
	}
}

func (n *OctreeNode) addPointToChildren(point *IndexedPoint) {
	n.children[getOctantFromElement(point, n.boundingBox)].AddDataPoint(point)
}

// initializes the children to new empty nodes
func (n *OctreeNode) initializeChildren() {
	for i := uint8(0); i < 8; i++ {
		if n.children[i] == nil {
			n.children[i] = NewOctreeNode(
				n,
				getOctantBoundingBox(&i, n.boundingBox),
				n.depth+1,
				n.maxPointsPerNode,
				n.maxDepth,
				false,
			)
		}
	}
}

// Returns a bounding box from the given box and the given octant index
func getOctantBoundingBox(octant *uint8, bbox *geometry.BoundingBox) *geometry.BoundingBox {
	return geometry.NewBoundingBoxFromParent(bbox, octant)
}
