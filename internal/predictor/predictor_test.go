package predictor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

func TestDecodeLogits(t *testing.T) {
	logits := []float32{
		// sample 0
		0.1, 0.7, 0.2,
		0.9, 0.0, 0.1,
		// sample 1
		-1, -2, 3,
		0.5, 0.4, 0.1,
	}
	labels, err := DecodeLogits(logits, 2, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 0}, {2, 0}}, labels)

	_, err = DecodeLogits(logits, 2, 2, 4)
	assert.ErrorIs(t, err, data.ErrDimensionMismatch)
	_, err = DecodeLogits(nil, 0, 0, 0)
	assert.ErrorIs(t, err, data.ErrDimensionMismatch)
}

func TestFlattenFeatures(t *testing.T) {
	flat, shape, err := flattenFeatures([][][]float32{
		{{1, 2, 3}, {4, 5, 6}},
		{{7, 8, 9}, {10, 11, 12}},
	})
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 2, 3}, shape)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, flat)

	_, _, err = flattenFeatures(nil)
	assert.ErrorIs(t, err, data.ErrEmptyInput)

	_, _, err = flattenFeatures([][][]float32{{{1, 2, 3}}, {{1, 2}}})
	assert.ErrorIs(t, err, data.ErrDimensionMismatch)

	_, _, err = flattenFeatures([][][]float32{{{1, 2, 3}}, {{1, 2, 3}, {4, 5, 6}}})
	assert.ErrorIs(t, err, data.ErrDimensionMismatch)
}

func TestFuncAdapter(t *testing.T) {
	var p Predictor = Func(func(features [][][]float32) ([][]int, error) {
		out := make([][]int, len(features))
		for i := range features {
			out[i] = make([]int, len(features[i]))
		}
		return out, nil
	})
	labels, err := p.Predict([][][]float32{{{0, 0, 0}, {1, 1, 1}}})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 0}}, labels)
	assert.NoError(t, p.Close())
}

func TestMissingCheckpoint(t *testing.T) {
	_, err := NewONNXPredictor(filepath.Join(t.TempDir(), "model.onnx"), ONNXOptions{NumClasses: 9})
	assert.ErrorIs(t, err, data.ErrCheckpointLoad)

	_, err = NewONNXPredictor("model.onnx", ONNXOptions{})
	assert.ErrorIs(t, err, data.ErrConfiguration)
}
