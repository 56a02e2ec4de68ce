package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

func randomPoints(rng *rand.Rand, n int, grid bool) data.PointSet {
	points := make(data.PointSet, n)
	for i := range points {
		if grid {
			// coarse integer grid produces many exact distance ties
			points[i] = data.Point{float64(rng.Intn(6)), float64(rng.Intn(6)), float64(rng.Intn(3))}
		} else {
			points[i] = data.Point{rng.Float64() * 50, rng.Float64() * 50, rng.Float64() * 5}
		}
	}
	return points
}

// bruteForceKNN is the reference ranking: ascending distance, then index
func bruteForceKNN(points data.PointSet, q data.Point, k int) NeighborQueryResult {
	all := make(NeighborQueryResult, len(points))
	for i, p := range points {
		all[i] = Neighbor{Index: i, Dist2: q.SquaredDistance(p)}
	}
	sort.Slice(all, func(i, j int) bool { return Less(all[i], all[j]) })
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

func TestKDTreeBuildEmpty(t *testing.T) {
	_, err := NewKDTreeIndex(nil)
	require.ErrorIs(t, err, data.ErrEmptyInput)

	_, err = Build(data.PointSet{})
	require.ErrorIs(t, err, data.ErrEmptyInput)
}

func TestKDTreeClampsK(t *testing.T) {
	points := data.PointSet{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}}
	idx, err := Build(points)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())

	result, err := QueryKNN(idx, data.Point{0, 0, 0}, 20)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, result.Indices())
}

func TestKDTreeRejectsNonPositiveK(t *testing.T) {
	idx, err := Build(data.PointSet{{0, 0, 0}})
	require.NoError(t, err)

	_, err = idx.QueryKNN(data.Point{}, 0)
	assert.ErrorIs(t, err, data.ErrConfiguration)
	_, err = idx.QueryKNN(data.Point{}, -3)
	assert.ErrorIs(t, err, data.ErrConfiguration)
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	for _, grid := range []bool{false, true} {
		rng := rand.New(rand.NewSource(7))
		points := randomPoints(rng, 400, grid)
		idx, err := NewKDTreeIndex(points)
		require.NoError(t, err)

		for q := 0; q < 50; q++ {
			query := randomPoints(rng, 1, grid)[0]
			for _, k := range []int{1, 5, 20} {
				got, err := idx.QueryKNN(query, k)
				require.NoError(t, err)
				want := bruteForceKNN(points, query, k)
				if diff := cmp.Diff(want, got); diff != "" {
					t.Fatalf("grid=%v k=%d query=%v mismatch (-want +got):\n%s", grid, k, query, diff)
				}
			}
		}
	}
}

func TestKDTreeTieResolvesToSmallerIndex(t *testing.T) {
	points := data.PointSet{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}}
	idx, err := NewKDTreeIndex(points)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		result, err := idx.QueryKNN(data.Point{0, 0, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, result.Indices())
	}
}

func TestKDTreeDoesNotAliasInput(t *testing.T) {
	points := data.PointSet{{0, 0, 0}, {5, 5, 5}}
	idx, err := NewKDTreeIndex(points)
	require.NoError(t, err)

	points[0] = data.Point{100, 100, 100}
	result, err := idx.QueryKNN(data.Point{0, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, result.Indices())
	assert.Equal(t, 0.0, result[0].Dist2)
}

func TestClampK(t *testing.T) {
	k, err := ClampK(20, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, k)

	k, err = ClampK(3, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, k)

	_, err = ClampK(1, 0)
	assert.ErrorIs(t, err, data.ErrEmptyInput)
}
