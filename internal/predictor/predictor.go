// Package predictor exposes the segmentation model as a function from a batch of
// per point feature vectors to a batch of per point labels.
package predictor

import (
	"fmt"

	"github.com/viterin/vek/vek32"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// Predictor labels every point of every sample of a batch. Implementations are
// substitutable: the labeler only depends on this interface.
type Predictor interface {
	Predict(features [][][]float32) ([][]int, error)
	Close() error
}

// Func adapts a plain function to the Predictor interface
type Func func(features [][][]float32) ([][]int, error)

func (f Func) Predict(features [][][]float32) ([][]int, error) {
	return f(features)
}

func (f Func) Close() error {
	return nil
}

// DecodeLogits turns row major (batch, points, classes) scores into the class with the
// highest score per point
func DecodeLogits(logits []float32, batch, points, classes int) ([][]int, error) {
	if classes <= 0 || len(logits) != batch*points*classes {
		return nil, fmt.Errorf("%d scores for shape (%d, %d, %d): %w", len(logits), batch, points, classes, data.ErrDimensionMismatch)
	}
	labels := make([][]int, batch)
	for b := 0; b < batch; b++ {
		labels[b] = make([]int, points)
		for p := 0; p < points; p++ {
			offset := (b*points + p) * classes
			labels[b][p] = vek32.ArgMax(logits[offset : offset+classes])
		}
	}
	return labels, nil
}

// flattenFeatures packs a (batch, points, dims) batch row major and returns its shape
func flattenFeatures(features [][][]float32) ([]float32, [3]int, error) {
	var shape [3]int
	shape[0] = len(features)
	if shape[0] == 0 || len(features[0]) == 0 {
		return nil, shape, fmt.Errorf("empty feature batch: %w", data.ErrEmptyInput)
	}
	shape[1] = len(features[0])
	shape[2] = len(features[0][0])

	flat := make([]float32, 0, shape[0]*shape[1]*shape[2])
	for b, sample := range features {
		if len(sample) != shape[1] {
			return nil, shape, fmt.Errorf("sample %d has %d points, expected %d: %w", b, len(sample), shape[1], data.ErrDimensionMismatch)
		}
		for p, f := range sample {
			if len(f) != shape[2] {
				return nil, shape, fmt.Errorf("sample %d point %d has %d features, expected %d: %w", b, p, len(f), shape[2], data.ErrDimensionMismatch)
			}
			flat = append(flat, f...)
		}
	}
	return flat, shape, nil
}
