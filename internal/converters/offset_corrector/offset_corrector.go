package offset_corrector

import (
	"github.com/ecopia-map/dense_labeler/internal/converters"
	"github.com/ecopia-map/dense_labeler/internal/data"
)

// Re-adds the normalization offset recorded by the dataset loader
type OffsetCorrector struct {
	Offset data.Point
}

func NewOffsetCorrector(offset data.Point) converters.CoordinateConverter {
	return &OffsetCorrector{
		Offset: offset,
	}
}

func (c *OffsetCorrector) ConvertCoordinate(coord data.Point) data.Point {
	return coord.Add(c.Offset)
}

// Returns a translated copy of points, the input is left untouched
func (c *OffsetCorrector) ConvertPointSet(points data.PointSet) data.PointSet {
	out := make(data.PointSet, len(points))
	for i, p := range points {
		out[i] = p.Add(c.Offset)
	}
	return out
}
