// Package accumulate assembles the sparse labeled cloud of a file from repeated
// bounded size sample and predict calls.
package accumulate

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/timing"
)

// SampleFunc draws batchSize samples from the current file
type SampleFunc func(batchSize int) (data.Batch, error)

// PredictFunc maps a batch of per point feature vectors to a batch of per point labels
type PredictFunc func(features [][][]float32) ([][]int, error)

type Accumulator struct {
	maxBatchSize int
	useColor     bool
}

func New(maxBatchSize int, useColor bool) *Accumulator {
	return &Accumulator{
		maxBatchSize: maxBatchSize,
		useColor:     useColor,
	}
}

// FeatureDims returns the length of the per point feature vector passed to the predictor
func (a *Accumulator) FeatureDims() int {
	if a.useColor {
		return 6
	}
	return 3
}

// Accumulate samples and predicts until totalSamples samples are drawn, in batches of at
// most maxBatchSize. Raw points and predicted labels are concatenated in call order then
// in sample order. Sampling and feature assembly are charged to load_data, the predictor
// call and the concatenation to predict. timer may be nil.
func (a *Accumulator) Accumulate(totalSamples int, sample SampleFunc, predict PredictFunc, timer *timing.Timing) (data.PointSet, data.LabelSet, error) {
	points := make(data.PointSet, 0)
	labels := make(data.LabelSet, 0)
	if totalSamples <= 0 {
		return points, labels, nil
	}
	if a.maxBatchSize <= 0 {
		return nil, nil, fmt.Errorf("max batch size must be positive, got %d: %w", a.maxBatchSize, data.ErrConfiguration)
	}

	iteration := 0
	for remaining := totalSamples; remaining > 0; iteration++ {
		batchSize := min(a.maxBatchSize, remaining)

		start := time.Now()
		batch, err := sample(batchSize)
		if err != nil {
			return nil, nil, fmt.Errorf("sampling batch %d: %w", iteration, err)
		}
		if batch.Size() != batchSize || len(batch.RawPoints) != batchSize {
			return nil, nil, fmt.Errorf("sampler returned %d samples (%d raw) for a batch of %d: %w",
				batch.Size(), len(batch.RawPoints), batchSize, data.ErrDimensionMismatch)
		}
		features, err := a.assembleFeatures(batch)
		if err != nil {
			return nil, nil, err
		}
		timer.Add(timing.LoadData, time.Since(start))

		start = time.Now()
		predicted, err := predict(features)
		if err != nil {
			return nil, nil, fmt.Errorf("predicting batch %d: %w", iteration, err)
		}
		if err := checkPredictionShape(batch.RawPoints, predicted); err != nil {
			return nil, nil, fmt.Errorf("predicting batch %d: %w", iteration, err)
		}
		for i := range batch.RawPoints {
			points = append(points, batch.RawPoints[i]...)
			labels = append(labels, predicted[i]...)
		}
		timer.Add(timing.Predict, time.Since(start))

		glog.V(1).Infof("batch %d: %d samples, %d sparse points so far", iteration, batchSize, len(points))
		remaining -= batchSize
	}

	return points, labels, nil
}

// assembleFeatures builds [x, y, z] or [x, y, z, r, g, b] per point from the normalized coordinates
func (a *Accumulator) assembleFeatures(batch data.Batch) ([][][]float32, error) {
	if a.useColor && !batch.HasColors() {
		return nil, fmt.Errorf("color features enabled but the sampler returned no colors: %w", data.ErrConfiguration)
	}

	dims := a.FeatureDims()
	features := make([][][]float32, batch.Size())
	for i, sample := range batch.Points {
		if len(sample) != len(batch.RawPoints[i]) {
			return nil, fmt.Errorf("sample %d has %d points but %d raw points: %w",
				i, len(sample), len(batch.RawPoints[i]), data.ErrDimensionMismatch)
		}
		features[i] = make([][]float32, len(sample))
		for j, p := range sample {
			f := make([]float32, dims)
			f[0], f[1], f[2] = float32(p[0]), float32(p[1]), float32(p[2])
			if a.useColor {
				c := batch.Colors[i][j]
				f[3], f[4], f[5] = c[0], c[1], c[2]
			}
			features[i][j] = f
		}
	}
	return features, nil
}

func checkPredictionShape(raw [][]data.Point, predicted [][]int) error {
	if len(predicted) != len(raw) {
		return fmt.Errorf("predictor returned %d label sequences for %d samples: %w", len(predicted), len(raw), data.ErrDimensionMismatch)
	}
	for i := range raw {
		if len(predicted[i]) != len(raw[i]) {
			return fmt.Errorf("sample %d: %d labels for %d points: %w", i, len(predicted[i]), len(raw[i]), data.ErrDimensionMismatch)
		}
	}
	return nil
}
