package std_algorithm_manager

import (
	"github.com/golang/glog"

	"github.com/ecopia-map/dense_labeler/internal/converters"
	"github.com/ecopia-map/dense_labeler/internal/converters/offset_corrector"
	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/interpolate"
	"github.com/ecopia-map/dense_labeler/internal/labeler"
	"github.com/ecopia-map/dense_labeler/internal/octree"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
	"github.com/ecopia-map/dense_labeler/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options      *labeler.LabelerOptions
	indexBuilder spatial.Builder
}

func NewAlgorithmManager(opts *labeler.LabelerOptions) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		options:      opts,
		indexBuilder: evaluateIndexBuilder(opts),
	}
}

func (m *StandardAlgorithmManager) GetIndexBuilder() spatial.Builder {
	return m.indexBuilder
}

// Returns a new Interpolator over the configured index, one per file
func (m *StandardAlgorithmManager) GetInterpolator() *interpolate.Interpolator {
	return interpolate.NewInterpolator(m.GetIndexBuilder(), m.options.Workers)
}

// Returns the converter moving normalized points back to the original frame
func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm(offset data.Point) converters.CoordinateConverter {
	return offset_corrector.NewOffsetCorrector(offset)
}

func evaluateIndexBuilder(opts *labeler.LabelerOptions) spatial.Builder {
	switch opts.IndexAlgorithm {
	case labeler.Octree:
		return octree.NewOctreeBuilder(opts.OctreeMaxPointsPerNode)
	case labeler.KDTree:
		return spatial.NewKDTreeBuilder()
	default:
		glog.Warningf("unknown index algorithm %q, using %s", opts.IndexAlgorithm, labeler.KDTree)
		return spatial.NewKDTreeBuilder()
	}
}
