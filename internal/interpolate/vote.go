package interpolate

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
)

// MajorityVoter counts neighbour labels in reusable buffers sized by k, never by the
// label values. Not safe for concurrent use.
type MajorityVoter struct {
	labels   []int     // neighbour labels, sorted ascending
	distinct []int     // distinct labels in ascending order
	counts   []float64 // counts[i] is the number of votes for distinct[i]
}

// NewMajorityVoter returns a voter for up to k neighbours. Larger neighbour sets grow the buffers.
func NewMajorityVoter(k int) *MajorityVoter {
	if k < 1 {
		k = 1
	}
	return &MajorityVoter{
		labels:   make([]int, 0, k),
		distinct: make([]int, 0, k),
		counts:   make([]float64, 0, k),
	}
}

// Vote returns the most frequent label among the neighbours. Counts are kept in ascending
// label order and the first maximum wins, so ties resolve to the smallest label.
func (v *MajorityVoter) Vote(labels data.LabelSet, neighbors spatial.NeighborQueryResult) int {
	v.labels = v.labels[:0]
	for _, n := range neighbors {
		v.labels = append(v.labels, labels[n.Index])
	}
	slices.Sort(v.labels)

	v.distinct = v.distinct[:0]
	v.counts = v.counts[:0]
	for i, label := range v.labels {
		if i == 0 || label != v.labels[i-1] {
			v.distinct = append(v.distinct, label)
			v.counts = append(v.counts, 0)
		}
		v.counts[len(v.counts)-1]++
	}
	return v.distinct[floats.MaxIdx(v.counts)]
}

// MajorityVote is the single shot form of MajorityVoter.Vote over a list of labels
func MajorityVote(labels []int) (int, error) {
	if len(labels) == 0 {
		return 0, data.ErrEmptyInput
	}
	if _, err := data.LabelSet(labels).MaxLabel(); err != nil {
		return 0, err
	}
	neighbors := make(spatial.NeighborQueryResult, len(labels))
	for i := range labels {
		neighbors[i] = spatial.Neighbor{Index: i}
	}
	return NewMajorityVoter(len(labels)).Vote(labels, neighbors), nil
}
