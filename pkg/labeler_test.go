package pkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/dataset"
	"github.com/ecopia-map/dense_labeler/internal/io"
	"github.com/ecopia-map/dense_labeler/internal/labeler"
	"github.com/ecopia-map/dense_labeler/internal/predictor"
	"github.com/ecopia-map/dense_labeler/internal/reportdb"
	"github.com/ecopia-map/dense_labeler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/dense_labeler/tools"
)

var errBrokenFile = errors.New("broken file")

type memoryLedger struct {
	records []reportdb.FileRecord
}

func (m *memoryLedger) RecordFile(rec reportdb.FileRecord) error {
	m.records = append(m.records, rec)
	return nil
}

// fails on every path containing "bad"
type flakyLoader struct {
	*dataset.Loader
}

func (f flakyLoader) Load(path string) (*dataset.FileData, error) {
	if strings.Contains(filepath.Base(path), "bad") {
		return nil, errBrokenFile
	}
	return f.Loader.Load(path)
}

// 10x10 grid at z = x, offset by (500, 800, 20), colored
func writeScan(t *testing.T, dir, name string) string {
	t.Helper()
	var sb strings.Builder
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			fmt.Fprintf(&sb, "%d %d %d 10 20 30\n", 500+x, 800+y, 20+x)
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0666))
	return path
}

// labels every point with 2 and counts the calls
func constantPredictor(calls *int, featureDims *int) predictor.Predictor {
	return predictor.Func(func(features [][][]float32) ([][]int, error) {
		*calls++
		labels := make([][]int, len(features))
		for s, sample := range features {
			labels[s] = make([]int, len(sample))
			for i := range sample {
				*featureDims = len(sample[i])
				labels[s][i] = 2
			}
		}
		return labels, nil
	})
}

func predictOptions(input, output string) *labeler.LabelerOptions {
	return &labeler.LabelerOptions{
		Input:            input,
		Output:           output,
		FolderProcessing: true,
		K:                3,
		IndexAlgorithm:   labeler.KDTree,
		Workers:          2,
		PredictOptions: &labeler.PredictOptions{
			NumSamples: 3,
			BatchSize:  2,
			NumPoint:   16,
			BoxSize:    4,
			NumClasses: 9,
		},
	}
}

func newPredictLabeler(opts *labeler.LabelerOptions, loader DataLoader, p predictor.Predictor, ledger Ledger) labeler.ILabeler {
	return NewLabeler(
		tools.NewStandardFileFinder(),
		loader,
		p,
		io.NewStandardWriter(),
		std_algorithm_manager.NewAlgorithmManager(opts),
		ledger,
	)
}

func newLoader(opts *labeler.LabelerOptions) *dataset.Loader {
	return dataset.NewLoader(dataset.LoaderOptions{
		NumPoint:   opts.PredictOptions.NumPoint,
		BoxSize:    opts.PredictOptions.BoxSize,
		NumClasses: opts.PredictOptions.NumClasses,
		Seed:       7,
	})
}

func TestRunLabelerWritesSparseAndDenseResults(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	scanA := writeScan(t, input, "a.txt")
	writeScan(t, input, "b.txt")

	opts := predictOptions(input, output)
	calls, dims := 0, 0
	ledger := &memoryLedger{}
	err := newPredictLabeler(opts, newLoader(opts), constantPredictor(&calls, &dims), ledger).RunLabeler(opts)
	require.NoError(t, err)

	// 3 samples in batches of at most 2, for each file
	assert.Equal(t, 4, calls)
	assert.Equal(t, 3, dims)

	original, err := dataset.ReadPoints(scanA)
	require.NoError(t, err)

	densePoints, err := io.ReadPointCloud(filepath.Join(output, "dense", "a.pcd"))
	require.NoError(t, err)
	assert.Equal(t, original, densePoints)

	denseLabels, err := io.ReadLabels(filepath.Join(output, "dense", "a.labels"))
	require.NoError(t, err)
	require.Len(t, denseLabels, 100)
	for _, label := range denseLabels {
		assert.Equal(t, 2, label)
	}

	sparsePoints, err := io.ReadPointCloud(filepath.Join(output, "sparse", "a.pcd"))
	require.NoError(t, err)
	assert.Len(t, sparsePoints, 3*16)
	for _, p := range sparsePoints {
		assert.Contains(t, original, p, "sparse points are in the original frame")
	}
	sparseLabels, err := io.ReadLabels(filepath.Join(output, "sparse", "a.labels"))
	require.NoError(t, err)
	assert.Len(t, sparseLabels, 3*16)

	require.Len(t, ledger.records, 2)
	assert.Equal(t, "a", ledger.records[0].Name)
	assert.Equal(t, "b", ledger.records[1].Name)
	assert.Equal(t, scanA, ledger.records[0].Path)
	assert.Equal(t, 48, ledger.records[0].SparsePoints)
	assert.Equal(t, 100, ledger.records[0].DensePoints)
	assert.Empty(t, ledger.records[0].Error)
	assert.Positive(t, ledger.records[0].Timing.Total())
}

func TestRunLabelerUsesColorFeatures(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeScan(t, input, "a.txt")

	opts := predictOptions(input, output)
	opts.PredictOptions.UseColor = true
	opts.IndexAlgorithm = labeler.Octree
	calls, dims := 0, 0
	require.NoError(t, newPredictLabeler(opts, newLoader(opts), constantPredictor(&calls, &dims), nil).RunLabeler(opts))
	assert.Equal(t, 6, dims)
}

func TestRunLabelerStopsOnFirstError(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeScan(t, input, "a.txt")
	writeScan(t, input, "bad.txt")
	writeScan(t, input, "c.txt")

	opts := predictOptions(input, output)
	calls, dims := 0, 0
	ledger := &memoryLedger{}
	err := newPredictLabeler(opts, flakyLoader{newLoader(opts)}, constantPredictor(&calls, &dims), ledger).RunLabeler(opts)

	require.ErrorIs(t, err, errBrokenFile)
	assert.Contains(t, err.Error(), "bad.txt")
	assert.FileExists(t, filepath.Join(output, "dense", "a.labels"))
	assert.NoFileExists(t, filepath.Join(output, "dense", "c.labels"))

	require.Len(t, ledger.records, 2)
	assert.NotEmpty(t, ledger.records[1].Error)
	assert.Equal(t, "bad", ledger.records[1].Name)
}

func TestRunLabelerContinueOnError(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeScan(t, input, "a.txt")
	writeScan(t, input, "bad.txt")
	writeScan(t, input, "c.txt")

	opts := predictOptions(input, output)
	opts.ContinueOnError = true
	calls, dims := 0, 0
	ledger := &memoryLedger{}
	err := newPredictLabeler(opts, flakyLoader{newLoader(opts)}, constantPredictor(&calls, &dims), ledger).RunLabeler(opts)

	require.ErrorIs(t, err, errBrokenFile)
	assert.FileExists(t, filepath.Join(output, "dense", "a.labels"))
	assert.FileExists(t, filepath.Join(output, "dense", "c.labels"))
	assert.Len(t, ledger.records, 3)
}

func TestRunLabelerMaxFiles(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeScan(t, input, "a.txt")
	writeScan(t, input, "b.txt")

	opts := predictOptions(input, output)
	opts.MaxFiles = 1
	calls, dims := 0, 0
	require.NoError(t, newPredictLabeler(opts, newLoader(opts), constantPredictor(&calls, &dims), nil).RunLabeler(opts))

	assert.FileExists(t, filepath.Join(output, "dense", "a.pcd"))
	assert.NoFileExists(t, filepath.Join(output, "dense", "b.pcd"))
}

func TestRunLabelerPredictorError(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeScan(t, input, "a.txt")

	opts := predictOptions(input, output)
	failing := predictor.Func(func(features [][][]float32) ([][]int, error) {
		return nil, fmt.Errorf("session closed: %w", data.ErrCheckpointLoad)
	})
	err := newPredictLabeler(opts, newLoader(opts), failing, nil).RunLabeler(opts)
	assert.ErrorIs(t, err, data.ErrCheckpointLoad)
	assert.NoFileExists(t, filepath.Join(output, "sparse", "a.pcd"))
}

func TestRunLabelerConfigurationErrors(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	opts := predictOptions(input, output)
	calls, dims := 0, 0
	l := newPredictLabeler(opts, newLoader(opts), constantPredictor(&calls, &dims), nil)

	// empty input folder
	assert.ErrorIs(t, l.RunLabeler(opts), data.ErrEmptyInput)

	noPredict := opts.Copy()
	noPredict.PredictOptions = nil
	assert.ErrorIs(t, l.RunLabeler(noPredict), data.ErrConfiguration)
}

func TestRunLabelerInterpolateFromSavedSparseResults(t *testing.T) {
	input, predicted, output := t.TempDir(), t.TempDir(), t.TempDir()
	scan := writeScan(t, input, "a.txt")

	opts := predictOptions(input, predicted)
	calls, dims := 0, 0
	require.NoError(t, newPredictLabeler(opts, newLoader(opts), constantPredictor(&calls, &dims), nil).RunLabeler(opts))

	interpolateOpts := &labeler.LabelerOptions{
		Input:              input,
		Output:             output,
		FolderProcessing:   true,
		K:                  1,
		IndexAlgorithm:     labeler.Octree,
		Workers:            1,
		InterpolateOptions: &labeler.InterpolateOptions{Sparse: filepath.Join(predicted, "sparse")},
	}
	ledger := &memoryLedger{}
	err := NewLabelerInterpolate(
		tools.NewStandardFileFinder(),
		dataset.ReadPoints,
		io.NewStandardWriter(),
		std_algorithm_manager.NewAlgorithmManager(interpolateOpts),
		ledger,
	).RunLabeler(interpolateOpts)
	require.NoError(t, err)

	original, err := dataset.ReadPoints(scan)
	require.NoError(t, err)
	densePoints, err := io.ReadPointCloud(filepath.Join(output, "dense", "a.pcd"))
	require.NoError(t, err)
	assert.Equal(t, original, densePoints)

	denseLabels, err := io.ReadLabels(filepath.Join(output, "dense", "a.labels"))
	require.NoError(t, err)
	assert.Len(t, denseLabels, 100)

	require.Len(t, ledger.records, 1)
	assert.Equal(t, 48, ledger.records[0].SparsePoints)
	assert.Zero(t, ledger.records[0].Timing.Predict)
}

func TestRunLabelerInterpolateErrors(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeScan(t, input, "a.txt")

	opts := &labeler.LabelerOptions{
		Input:              input,
		Output:             output,
		FolderProcessing:   true,
		K:                  1,
		InterpolateOptions: &labeler.InterpolateOptions{Sparse: t.TempDir()},
	}
	l := NewLabelerInterpolate(tools.NewStandardFileFinder(), dataset.ReadPoints, io.NewStandardWriter(),
		std_algorithm_manager.NewAlgorithmManager(opts), nil)

	// no sparse result for a.txt
	assert.ErrorIs(t, l.RunLabeler(opts), data.ErrIO)

	// sparse points and labels of different lengths
	writer := io.NewStandardWriter()
	require.NoError(t, writer.WritePointCloud(filepath.Join(opts.InterpolateOptions.Sparse, "a.pcd"), data.PointSet{{500, 800, 20}}))
	require.NoError(t, writer.WriteLabels(filepath.Join(opts.InterpolateOptions.Sparse, "a.labels"), data.LabelSet{1, 2}))
	assert.ErrorIs(t, l.RunLabeler(opts), data.ErrDimensionMismatch)

	opts.InterpolateOptions = nil
	assert.ErrorIs(t, l.RunLabeler(opts), data.ErrConfiguration)
}
