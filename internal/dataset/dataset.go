// Package dataset reads point cloud files, normalizes them by their minimum corner and
// draws fixed size box samples from them.
package dataset

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/geometry"
)

type LoaderOptions struct {
	NumPoint   int     // points per sample
	BoxSize    float64 // side of the x/y sampling box
	NumClasses int
	Seed       uint64
}

// Loader reads files and owns the random source shared by every file it loads.
// The source is seeded once; sampling is reproducible for a given seed and call order.
type Loader struct {
	opts LoaderOptions
	src  rand.Source
	rng  *rand.Rand
}

func NewLoader(opts LoaderOptions) *Loader {
	src := rand.NewPCG(opts.Seed, opts.Seed)
	return &Loader{
		opts: opts,
		src:  src,
		rng:  rand.New(src),
	}
}

func (l *Loader) NumClasses() int {
	return l.opts.NumClasses
}

func (l *Loader) NumPoint() int {
	return l.opts.NumPoint
}

// Load reads the point cloud at path together with its optional <name>.labels ground truth
func (l *Loader) Load(path string) (*FileData, error) {
	if l.opts.BoxSize <= 0 {
		return nil, fmt.Errorf("box size must be positive, got %v: %w", l.opts.BoxSize, data.ErrConfiguration)
	}

	cloud, err := readCloud(path)
	if err != nil {
		return nil, err
	}
	if len(cloud.points) == 0 {
		return nil, fmt.Errorf("%s holds no points: %w", path, data.ErrEmptyInput)
	}
	labels, err := readGroundTruth(path, len(cloud.points))
	if err != nil {
		return nil, err
	}

	fd := newFileData(path, cloud, labels, l)
	glog.V(1).Infof("loaded %s: %d points, offset %v, colors %v, labels %v",
		filepath.Base(path), len(fd.points), fd.offset, fd.colors != nil, fd.labels != nil)
	return fd, nil
}

// FileData is one loaded point cloud in the normalized frame
type FileData struct {
	path   string
	points data.PointSet // normalized: original minus offset
	offset data.Point    // minimum corner of the original cloud
	colors []data.Color
	labels data.LabelSet
	bbox   *geometry.BoundingBox

	sortedX []float64 // x coordinates in ascending order
	byX     []int     // point positions in ascending x order

	loader *Loader
}

func newFileData(path string, cloud *rawCloud, labels data.LabelSet, loader *Loader) *FileData {
	offset := geometry.NewBoundingBoxFromPoints(cloud.points).Min()
	points := make(data.PointSet, len(cloud.points))
	for i, p := range cloud.points {
		points[i] = data.Point{p[0] - offset[0], p[1] - offset[1], p[2] - offset[2]}
	}

	byX := make([]int, len(points))
	for i := range byX {
		byX[i] = i
	}
	sort.SliceStable(byX, func(i, j int) bool { return points[byX[i]][0] < points[byX[j]][0] })
	sortedX := make([]float64, len(points))
	for i, idx := range byX {
		sortedX[i] = points[idx][0]
	}

	return &FileData{
		path:    path,
		points:  points,
		offset:  offset,
		colors:  cloud.colors,
		labels:  labels,
		bbox:    geometry.NewBoundingBoxFromPoints(points),
		sortedX: sortedX,
		byX:     byX,
		loader:  loader,
	}
}

// Name returns the file name without folder and extension
func (fd *FileData) Name() string {
	base := filepath.Base(fd.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (fd *FileData) Path() string {
	return fd.path
}

// FullPoints returns every point of the file in the normalized frame
func (fd *FileData) FullPoints() data.PointSet {
	return fd.points
}

// NormalizationOffset returns the offset to add to normalized points to get back the original frame
func (fd *FileData) NormalizationOffset() data.Point {
	return fd.offset
}

// Labels returns the ground truth labels, nil when the file has none
func (fd *FileData) Labels() data.LabelSet {
	return fd.labels
}

// SampleBatch draws batchSize box samples of pointsPerSample points each
func (fd *FileData) SampleBatch(batchSize int, pointsPerSample int) (data.Batch, error) {
	if batchSize < 0 || pointsPerSample <= 0 {
		return data.Batch{}, fmt.Errorf("invalid batch %d of %d points: %w", batchSize, pointsPerSample, data.ErrConfiguration)
	}

	batch := data.Batch{
		Points:    make([][]data.Point, batchSize),
		RawPoints: make([][]data.Point, batchSize),
	}
	if fd.labels != nil {
		batch.Labels = make([][]int, batchSize)
	}
	if fd.colors != nil {
		batch.Colors = make([][]data.Color, batchSize)
	}

	for s := 0; s < batchSize; s++ {
		center := fd.points[fd.loader.rng.IntN(len(fd.points))]
		indices := fd.chooseIndices(fd.boxCandidates(center), pointsPerSample)

		// x and y centered on the box, z on the box floor
		shift := data.Point{center[0], center[1], fd.bbox.Zmin}

		normalized := make([]data.Point, len(indices))
		raw := make([]data.Point, len(indices))
		for i, idx := range indices {
			p := fd.points[idx]
			normalized[i] = data.Point{p[0] - shift[0], p[1] - shift[1], p[2] - shift[2]}
			raw[i] = p.Add(fd.offset)
		}
		batch.Points[s] = normalized
		batch.RawPoints[s] = raw

		if fd.labels != nil {
			labels := make([]int, len(indices))
			for i, idx := range indices {
				labels[i] = fd.labels[idx]
			}
			batch.Labels[s] = labels
		}
		if fd.colors != nil {
			colors := make([]data.Color, len(indices))
			for i, idx := range indices {
				colors[i] = fd.colors[idx]
			}
			batch.Colors[s] = colors
		}
	}
	return batch, nil
}

// boxCandidates returns the positions of the points inside the x/y box centered on center,
// over the whole z range. The center itself is always a candidate.
func (fd *FileData) boxCandidates(center data.Point) []int {
	half := fd.loader.opts.BoxSize / 2
	xmin, xmax := center[0]-half, center[0]+half
	ymin, ymax := center[1]-half, center[1]+half

	lo := sort.SearchFloat64s(fd.sortedX, xmin)
	hi := sort.Search(len(fd.sortedX), func(i int) bool { return fd.sortedX[i] > xmax })

	candidates := make([]int, 0, hi-lo)
	for _, idx := range fd.byX[lo:hi] {
		y := fd.points[idx][1]
		if y >= ymin && y <= ymax {
			candidates = append(candidates, idx)
		}
	}
	return candidates
}

// chooseIndices draws n candidates, without replacement when there are enough of them
func (fd *FileData) chooseIndices(candidates []int, n int) []int {
	picks := make([]int, n)
	if len(candidates) >= n {
		sampleuv.WithoutReplacement(picks, len(candidates), fd.loader.src)
	} else {
		for i := range picks {
			picks[i] = fd.loader.rng.IntN(len(candidates))
		}
	}
	for i, p := range picks {
		picks[i] = candidates[p]
	}
	return picks
}
