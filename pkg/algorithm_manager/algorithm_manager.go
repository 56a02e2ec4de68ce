package algorithm_manager

import (
	"github.com/ecopia-map/dense_labeler/internal/converters"
	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/interpolate"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
)

type AlgorithmManager interface {
	GetIndexBuilder() spatial.Builder
	GetInterpolator() *interpolate.Interpolator
	GetCoordinateConverterAlgorithm(offset data.Point) converters.CoordinateConverter
}
