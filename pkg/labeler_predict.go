package pkg

import (
	"fmt"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/ecopia-map/dense_labeler/internal/accumulate"
	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/dataset"
	"github.com/ecopia-map/dense_labeler/internal/io"
	"github.com/ecopia-map/dense_labeler/internal/labeler"
	"github.com/ecopia-map/dense_labeler/internal/predictor"
	"github.com/ecopia-map/dense_labeler/internal/reportdb"
	"github.com/ecopia-map/dense_labeler/internal/timing"
	"github.com/ecopia-map/dense_labeler/pkg/algorithm_manager"
	"github.com/ecopia-map/dense_labeler/tools"
)

// DataLoader reads and normalizes one point cloud file. *dataset.Loader satisfies it.
type DataLoader interface {
	Load(path string) (*dataset.FileData, error)
}

type LabelerPredict struct {
	fileFinder       tools.FileFinder
	loader           DataLoader
	predictor        predictor.Predictor
	writer           io.PointCloudWriter
	algorithmManager algorithm_manager.AlgorithmManager
	ledger           Ledger
}

func NewLabeler(
	fileFinder tools.FileFinder,
	loader DataLoader,
	predictor predictor.Predictor,
	writer io.PointCloudWriter,
	algorithmManager algorithm_manager.AlgorithmManager,
	ledger Ledger,
) labeler.ILabeler {
	return &LabelerPredict{
		fileFinder:       fileFinder,
		loader:           loader,
		predictor:        predictor,
		writer:           writer,
		algorithmManager: algorithmManager,
		ledger:           ledger,
	}
}

// Starts the labeling process: sample, predict, interpolate and write every input file
func (l *LabelerPredict) RunLabeler(opts *labeler.LabelerOptions) error {
	if opts.PredictOptions == nil {
		return fmt.Errorf("missing predict options: %w", data.ErrConfiguration)
	}
	return runFiles(l.fileFinder, l.ledger, opts, l.processFile)
}

func (l *LabelerPredict) processFile(filePath string, opts *labeler.LabelerOptions) (rec reportdb.FileRecord, err error) {
	predictOpts := opts.PredictOptions
	timer := timing.Timing{}
	defer func() { rec.Timing = timer }()

	// load_data
	tools.LogOutput("> reading data from point cloud file...", filepath.Base(filePath))
	stop := timer.Track(timing.LoadData)
	fileData, err := l.loader.Load(filePath)
	stop()
	if err != nil {
		return rec, err
	}
	rec.Name = fileData.Name()

	// load_data and predict, split by the accumulator
	tools.LogOutput("> predicting", predictOpts.NumSamples, "samples...")
	sample := func(batchSize int) (data.Batch, error) {
		return fileData.SampleBatch(batchSize, predictOpts.NumPoint)
	}
	sparse := data.SparseCloud{}
	sparse.Points, sparse.Labels, err = accumulate.New(predictOpts.BatchSize, predictOpts.UseColor).
		Accumulate(predictOpts.NumSamples, sample, l.predictor.Predict, &timer)
	if err != nil {
		return rec, err
	}
	rec.SparsePoints = len(sparse.Points)

	// interpolate
	tools.LogOutput("> interpolating", len(fileData.FullPoints()), "dense points...")
	stop = timer.Track(timing.Interpolate)
	dense := data.DenseCloud{
		Points: l.algorithmManager.GetCoordinateConverterAlgorithm(fileData.NormalizationOffset()).ConvertPointSet(fileData.FullPoints()),
	}
	dense.Labels, err = l.algorithmManager.GetInterpolator().Interpolate(sparse.Points, sparse.Labels, dense.Points, opts.K)
	stop()
	if err != nil {
		return rec, err
	}
	rec.DensePoints = len(dense.Points)

	// write_data
	tools.LogOutput("> writing results...")
	stop = timer.Track(timing.WriteData)
	err = writeLabeledCloud(l.writer, opts.Output, tools.SparseOutputFolder, rec.Name, sparse.Points, sparse.Labels)
	if err == nil {
		err = writeLabeledCloud(l.writer, opts.Output, tools.DenseOutputFolder, rec.Name, dense.Points, dense.Labels)
	}
	stop()
	if err != nil {
		return rec, err
	}

	glog.Infof("%s sparse=%d dense=%d %s", rec.Name, rec.SparsePoints, rec.DensePoints, timer.String())
	return rec, nil
}
