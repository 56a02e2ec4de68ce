package data

import "fmt"

// Point holds the X, Y, Z coordinates of a point cloud point
type Point [3]float64

// Color holds the R, G, B channels of a point, each in the [0,1] range
type Color [3]float32

// PointSet is an ordered list of points. Index i pairs with index i of a LabelSet.
type PointSet []Point

// LabelSet is an ordered list of non-negative class identifiers, one per point.
type LabelSet []int

// Builds a new Point from the given coordinates
func NewPoint(X, Y, Z float64) Point {
	return Point{X, Y, Z}
}

func (p Point) X() float64 { return p[0] }
func (p Point) Y() float64 { return p[1] }
func (p Point) Z() float64 { return p[2] }

// Add returns the point translated by the given offset
func (p Point) Add(offset Point) Point {
	return Point{p[0] + offset[0], p[1] + offset[1], p[2] + offset[2]}
}

// SquaredDistance returns the squared euclidean distance between p and q
func (p Point) SquaredDistance(q Point) float64 {
	dx := p[0] - q[0]
	dy := p[1] - q[1]
	dz := p[2] - q[2]
	return dx*dx + dy*dy + dz*dz
}

// NewPointSet converts untyped coordinate rows into a PointSet. Every row must
// carry exactly three coordinates.
func NewPointSet(rows [][]float64) (PointSet, error) {
	points := make(PointSet, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("point %d has %d coordinates: %w", i, len(row), ErrDimensionMismatch)
		}
		points[i] = Point{row[0], row[1], row[2]}
	}
	return points, nil
}

// Flatten concatenates per-sample point lists preserving sample order
func Flatten(samples [][]Point) PointSet {
	total := 0
	for _, s := range samples {
		total += len(s)
	}
	points := make(PointSet, 0, total)
	for _, s := range samples {
		points = append(points, s...)
	}
	return points
}

// MaxLabel returns the largest label of the set, or an error if a label is negative.
// An empty set yields -1.
func (l LabelSet) MaxLabel() (int, error) {
	max := -1
	for i, label := range l {
		if label < 0 {
			return 0, fmt.Errorf("label %d at position %d: %w", label, i, ErrInvalidLabel)
		}
		if label > max {
			max = label
		}
	}
	return max, nil
}

// Batch is the result of one SampleBatch call. The outer index is the sample, the
// inner index is the point within the sample. Labels and Colors are optional.
type Batch struct {
	Points    [][]Point // normalized coordinates fed to the model
	RawPoints [][]Point // coordinates in the original sensor frame
	Labels    [][]int   // ground truth labels, nil when unavailable
	Colors    [][]Color // point colors, nil when unavailable
}

// Size returns the number of samples in the batch
func (b *Batch) Size() int {
	return len(b.Points)
}

// HasColors reports whether every sample carries one color per point
func (b *Batch) HasColors() bool {
	if len(b.Colors) != len(b.Points) {
		return false
	}
	for i := range b.Points {
		if len(b.Colors[i]) != len(b.Points[i]) {
			return false
		}
	}
	return true
}

// SparseCloud is the model-scored point set in the original frame with its predicted labels
type SparseCloud struct {
	Points PointSet
	Labels LabelSet
}

// DenseCloud is the full resolution point set of an input file with its interpolated labels
type DenseCloud struct {
	Points PointSet
	Labels LabelSet
}
