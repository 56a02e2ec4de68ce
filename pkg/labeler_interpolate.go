package pkg

import (
	"fmt"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/io"
	"github.com/ecopia-map/dense_labeler/internal/labeler"
	"github.com/ecopia-map/dense_labeler/internal/reportdb"
	"github.com/ecopia-map/dense_labeler/internal/timing"
	"github.com/ecopia-map/dense_labeler/pkg/algorithm_manager"
	"github.com/ecopia-map/dense_labeler/tools"
)

// PointReader reads the points of a dense cloud in its original frame
type PointReader func(path string) (data.PointSet, error)

type LabelerInterpolate struct {
	fileFinder       tools.FileFinder
	readPoints       PointReader
	writer           io.PointCloudWriter
	algorithmManager algorithm_manager.AlgorithmManager
	ledger           Ledger
}

func NewLabelerInterpolate(
	fileFinder tools.FileFinder,
	readPoints PointReader,
	writer io.PointCloudWriter,
	algorithmManager algorithm_manager.AlgorithmManager,
	ledger Ledger,
) labeler.ILabeler {
	return &LabelerInterpolate{
		fileFinder:       fileFinder,
		readPoints:       readPoints,
		writer:           writer,
		algorithmManager: algorithmManager,
		ledger:           ledger,
	}
}

// Starts the interpolation of saved sparse results onto every input dense cloud.
// The sparse result of <name>.<ext> is read from <sparse>/<name>.pcd and <sparse>/<name>.labels.
func (l *LabelerInterpolate) RunLabeler(opts *labeler.LabelerOptions) error {
	if opts.InterpolateOptions == nil || opts.InterpolateOptions.Sparse == "" {
		return fmt.Errorf("missing sparse results folder: %w", data.ErrConfiguration)
	}
	return runFiles(l.fileFinder, l.ledger, opts, l.processFile)
}

func (l *LabelerInterpolate) processFile(filePath string, opts *labeler.LabelerOptions) (rec reportdb.FileRecord, err error) {
	timer := timing.Timing{}
	defer func() { rec.Timing = timer }()
	rec.Name = tools.GetFilenameWithoutExtension(filePath)
	sparseFolder := opts.InterpolateOptions.Sparse

	// load_data
	tools.LogOutput("> reading sparse result and dense cloud...", filepath.Base(filePath))
	stop := timer.Track(timing.LoadData)
	sparse, err := readSparseCloud(sparseFolder, rec.Name)
	dense := data.DenseCloud{}
	if err == nil {
		dense.Points, err = l.readPoints(filePath)
	}
	stop()
	if err != nil {
		return rec, err
	}
	rec.SparsePoints = len(sparse.Points)
	rec.DensePoints = len(dense.Points)

	// interpolate
	tools.LogOutput("> interpolating", len(dense.Points), "dense points...")
	stop = timer.Track(timing.Interpolate)
	dense.Labels, err = l.algorithmManager.GetInterpolator().Interpolate(sparse.Points, sparse.Labels, dense.Points, opts.K)
	stop()
	if err != nil {
		return rec, err
	}

	// write_data
	tools.LogOutput("> writing results...")
	stop = timer.Track(timing.WriteData)
	err = writeLabeledCloud(l.writer, opts.Output, tools.DenseOutputFolder, rec.Name, dense.Points, dense.Labels)
	stop()
	if err != nil {
		return rec, err
	}

	glog.Infof("%s sparse=%d dense=%d %s", rec.Name, rec.SparsePoints, rec.DensePoints, timer.String())
	return rec, nil
}

func readSparseCloud(folder, name string) (*data.SparseCloud, error) {
	points, err := io.ReadPointCloud(outputPath(folder, "", name, tools.PointCloudExt))
	if err != nil {
		return nil, err
	}
	labels, err := io.ReadLabels(outputPath(folder, "", name, tools.LabelsExt))
	if err != nil {
		return nil, err
	}
	if len(points) != len(labels) {
		return nil, fmt.Errorf("sparse result %s has %d points but %d labels: %w", name, len(points), len(labels), data.ErrDimensionMismatch)
	}
	return &data.SparseCloud{Points: points, Labels: labels}, nil
}
