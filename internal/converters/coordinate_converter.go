package converters

import (
	"github.com/ecopia-map/dense_labeler/internal/data"
)

// CoordinateConverter maps points from the normalized frame used for sampling back to the
// original sensor frame of the input file
type CoordinateConverter interface {
	ConvertCoordinate(coord data.Point) data.Point
	ConvertPointSet(points data.PointSet) data.PointSet
}
