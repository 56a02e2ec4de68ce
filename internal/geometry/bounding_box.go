package geometry

import (
	"math"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// Axis aligned bounding box with cached mid planes
type BoundingBox struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
	Zmin, Zmax float64
	Xmid, Ymid, Zmid float64
}

// Builds a new BoundingBox from its extremes
func NewBoundingBox(minX, maxX, minY, maxY, minZ, maxZ float64) *BoundingBox {
	return &BoundingBox{
		Xmin: minX,
		Xmax: maxX,
		Ymin: minY,
		Ymax: maxY,
		Zmin: minZ,
		Zmax: maxZ,
		Xmid: (minX + maxX) / 2,
		Ymid: (minY + maxY) / 2,
		Zmid: (minZ + maxZ) / 2,
	}
}

// Builds the bounding box of the given points. Returns nil for an empty set.
func NewBoundingBoxFromPoints(points data.PointSet) *BoundingBox {
	if len(points) == 0 {
		return nil
	}
	minX, minY, minZ := math.Inf(1), math.Inf(1), math.Inf(1)
	maxX, maxY, maxZ := math.Inf(-1), math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(p[0], minX)
		minY = math.Min(p[1], minY)
		minZ = math.Min(p[2], minZ)
		maxX = math.Max(p[0], maxX)
		maxY = math.Max(p[1], maxY)
		maxZ = math.Max(p[2], maxZ)
	}
	return NewBoundingBox(minX, maxX, minY, maxY, minZ, maxZ)
}

// Returns the bounding box of the given octant of the parent box. Octant bits are
// x (1), y (2), z (4), set when the octant lies above the parent mid plane.
func NewBoundingBoxFromParent(parent *BoundingBox, octant *uint8) *BoundingBox {
	var xMin, xMax, yMin, yMax, zMin, zMax float64
	if *octant&1 == 0 {
		xMin, xMax = parent.Xmin, parent.Xmid
	} else {
		xMin, xMax = parent.Xmid, parent.Xmax
	}
	if *octant&2 == 0 {
		yMin, yMax = parent.Ymin, parent.Ymid
	} else {
		yMin, yMax = parent.Ymid, parent.Ymax
	}
	if *octant&4 == 0 {
		zMin, zMax = parent.Zmin, parent.Zmid
	} else {
		zMin, zMax = parent.Zmid, parent.Zmax
	}
	return NewBoundingBox(xMin, xMax, yMin, yMax, zMin, zMax)
}

// Min returns the minimum corner of the box
func (b *BoundingBox) Min() data.Point {
	return data.Point{b.Xmin, b.Ymin, b.Zmin}
}

// Contains reports whether the point lies inside the box, borders included
func (b *BoundingBox) Contains(p data.Point) bool {
	return p[0] >= b.Xmin && p[0] <= b.Xmax &&
		p[1] >= b.Ymin && p[1] <= b.Ymax &&
		p[2] >= b.Zmin && p[2] <= b.Zmax
}

// SquaredDistance returns the squared distance from the point to the closest point
// of the box, 0 if the point is inside
func (b *BoundingBox) SquaredDistance(p data.Point) float64 {
	dx := axisGap(p[0], b.Xmin, b.Xmax)
	dy := axisGap(p[1], b.Ymin, b.Ymax)
	dz := axisGap(p[2], b.Zmin, b.Zmax)
	return dx*dx + dy*dy + dz*dz
}

// Diagonal returns the length of the box diagonal
func (b *BoundingBox) Diagonal() float64 {
	w := b.Xmax - b.Xmin
	l := b.Ymax - b.Ymin
	h := b.Zmax - b.Zmin
	return math.Sqrt(w*w + l*l + h*h)
}

func axisGap(v, min, max float64) float64 {
	if v < min {
		return min - v
	}
	if v > max {
		return v - max
	}
	return 0
}
