package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
)

func TestMajorityVote(t *testing.T) {
	tests := []struct {
		labels []int
		want   int
	}{
		{[]int{0, 0, 0, 1, 1}, 0},
		{[]int{1, 1, 0}, 1},
		{[]int{0, 1}, 0},
		{[]int{3, 2, 2, 3}, 2},
		{[]int{7}, 7},
	}
	for _, tt := range tests {
		got, err := MajorityVote(tt.labels)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "labels %v", tt.labels)
	}
}

func TestMajorityVoteErrors(t *testing.T) {
	_, err := MajorityVote(nil)
	assert.ErrorIs(t, err, data.ErrEmptyInput)

	_, err = MajorityVote([]int{1, -2})
	assert.ErrorIs(t, err, data.ErrInvalidLabel)
}

func TestMajorityVoterReusesBuffers(t *testing.T) {
	voter := NewMajorityVoter(3)
	labels := data.LabelSet{2, 2, 1}

	assert.Equal(t, 2, voter.Vote(labels, spatial.NeighborQueryResult{{Index: 0}, {Index: 1}, {Index: 2}}))
	assert.Equal(t, 1, voter.Vote(labels, spatial.NeighborQueryResult{{Index: 2}}))
	assert.Equal(t, []int{1}, voter.distinct)
	assert.Equal(t, []float64{1}, voter.counts)
}

func TestMajorityVoteLargeLabels(t *testing.T) {
	got, err := MajorityVote([]int{1 << 60, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = MajorityVote([]int{1 << 60, 5, 1 << 60})
	require.NoError(t, err)
	assert.Equal(t, 1<<60, got)
}
