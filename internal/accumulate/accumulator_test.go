package accumulate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/timing"
)

// fakeSampler returns pointsPerSample points per sample, numbered in draw order
type fakeSampler struct {
	pointsPerSample int
	withColor       bool
	calls           []int
	drawn           int
}

func (s *fakeSampler) sample(batchSize int) (data.Batch, error) {
	s.calls = append(s.calls, batchSize)
	batch := data.Batch{}
	for i := 0; i < batchSize; i++ {
		norm := make([]data.Point, s.pointsPerSample)
		raw := make([]data.Point, s.pointsPerSample)
		colors := make([]data.Color, s.pointsPerSample)
		for j := range raw {
			v := float64(s.drawn)
			norm[j] = data.Point{v, 0, 0}
			raw[j] = data.Point{v, 100, 100}
			colors[j] = data.Color{0.5, 0.25, 1}
			s.drawn++
		}
		batch.Points = append(batch.Points, norm)
		batch.RawPoints = append(batch.RawPoints, raw)
		if s.withColor {
			batch.Colors = append(batch.Colors, colors)
		}
	}
	return batch, nil
}

// labels every point with its x coordinate modulo 3
func modPredict(features [][][]float32) ([][]int, error) {
	out := make([][]int, len(features))
	for i, sample := range features {
		out[i] = make([]int, len(sample))
		for j, f := range sample {
			out[i][j] = int(f[0]) % 3
		}
	}
	return out, nil
}

func TestAccumulateBatchSizes(t *testing.T) {
	sampler := &fakeSampler{pointsPerSample: 1}
	var timer timing.Timing

	points, labels, err := New(128, false).Accumulate(300, sampler.sample, modPredict, &timer)
	require.NoError(t, err)

	assert.Equal(t, []int{128, 128, 44}, sampler.calls)
	assert.Len(t, points, 300)
	assert.Len(t, labels, 300)
}

func TestAccumulatePreservesOrder(t *testing.T) {
	sampler := &fakeSampler{pointsPerSample: 4}

	points, labels, err := New(3, false).Accumulate(7, sampler.sample, modPredict, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 1}, sampler.calls)
	require.Len(t, points, 28)
	for i, p := range points {
		assert.Equal(t, data.Point{float64(i), 100, 100}, p)
		assert.Equal(t, i%3, labels[i])
	}
}

func TestAccumulateNothingToDo(t *testing.T) {
	for _, total := range []int{0, -5} {
		points, labels, err := New(0, true).Accumulate(total,
			func(int) (data.Batch, error) {
				t.Fatal("sampler called")
				return data.Batch{}, nil
			},
			func([][][]float32) ([][]int, error) {
				t.Fatal("predictor called")
				return nil, nil
			}, nil)
		require.NoError(t, err)
		assert.Empty(t, points)
		assert.Empty(t, labels)
	}
}

func TestAccumulateInvalidBatchSize(t *testing.T) {
	sampler := &fakeSampler{pointsPerSample: 1}
	_, _, err := New(0, false).Accumulate(10, sampler.sample, modPredict, nil)
	assert.ErrorIs(t, err, data.ErrConfiguration)
	assert.Empty(t, sampler.calls)
}

func TestFeatureAssembly(t *testing.T) {
	for _, useColor := range []bool{false, true} {
		sampler := &fakeSampler{pointsPerSample: 2, withColor: true}
		var seen [][][]float32
		predict := func(features [][][]float32) ([][]int, error) {
			seen = append(seen, features...)
			return modPredict(features)
		}

		_, _, err := New(8, useColor).Accumulate(1, sampler.sample, predict, nil)
		require.NoError(t, err)

		want := [][][]float32{{{0, 0, 0}, {1, 0, 0}}}
		if useColor {
			want = [][][]float32{{{0, 0, 0, 0.5, 0.25, 1}, {1, 0, 0, 0.5, 0.25, 1}}}
		}
		if diff := cmp.Diff(want, seen); diff != "" {
			t.Fatalf("useColor=%v features (-want +got):\n%s", useColor, diff)
		}
	}
}

func TestMissingColors(t *testing.T) {
	sampler := &fakeSampler{pointsPerSample: 2}
	_, _, err := New(8, true).Accumulate(2, sampler.sample, modPredict, nil)
	assert.ErrorIs(t, err, data.ErrConfiguration)
}

func TestShapeMismatch(t *testing.T) {
	sampler := &fakeSampler{pointsPerSample: 2}
	short := func(features [][][]float32) ([][]int, error) {
		return [][]int{{0}}, nil
	}
	_, _, err := New(8, false).Accumulate(1, sampler.sample, short, nil)
	assert.ErrorIs(t, err, data.ErrDimensionMismatch)

	undersized := func(batchSize int) (data.Batch, error) {
		return sampler.sample(batchSize - 1)
	}
	_, _, err = New(8, false).Accumulate(4, undersized, modPredict, nil)
	assert.ErrorIs(t, err, data.ErrDimensionMismatch)
}

func TestCollaboratorErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")

	_, _, err := New(8, false).Accumulate(4, func(int) (data.Batch, error) {
		return data.Batch{}, boom
	}, modPredict, nil)
	assert.ErrorIs(t, err, boom)

	sampler := &fakeSampler{pointsPerSample: 1}
	calls := 0
	_, _, err = New(2, false).Accumulate(6, sampler.sample, func([][][]float32) ([][]int, error) {
		calls++
		return nil, boom
	}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestTimingIsCharged(t *testing.T) {
	sampler := &fakeSampler{pointsPerSample: 10}
	var timer timing.Timing
	_, _, err := New(4, false).Accumulate(9, sampler.sample, modPredict, &timer)
	require.NoError(t, err)
	assert.Positive(t, timer.LoadData+timer.Predict)
	assert.Zero(t, timer.Interpolate)
	assert.Zero(t, timer.WriteData)
}
