// Package interpolate propagates sparse labels onto a dense point cloud by majority
// vote among the k nearest sparse neighbours of every dense point.
package interpolate

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/golang/glog"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
)

// DefaultK is the number of neighbours voting for a dense label
const DefaultK = 20

// dense positions per work unit
const chunkSize = 1024

type Interpolator struct {
	builder spatial.Builder
	workers int
}

// NewInterpolator returns an Interpolator building its index with builder and resolving
// labels with the given number of workers. workers <= 0 uses one worker per CPU.
func NewInterpolator(builder spatial.Builder, workers int) *Interpolator {
	if builder == nil {
		builder = spatial.NewKDTreeBuilder()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Interpolator{
		builder: builder,
		workers: workers,
	}
}

// Interpolate labels densePoints with the default kd-tree index and one worker per CPU
func Interpolate(sparsePoints data.PointSet, sparseLabels data.LabelSet, densePoints data.PointSet, k int) (data.LabelSet, error) {
	return NewInterpolator(nil, 0).Interpolate(sparsePoints, sparseLabels, densePoints, k)
}

// Interpolate returns one label per dense point, in dense order. The index over the sparse
// points is built once per call and released when the call returns.
func (in *Interpolator) Interpolate(sparsePoints data.PointSet, sparseLabels data.LabelSet, densePoints data.PointSet, k int) (data.LabelSet, error) {
	if len(sparsePoints) != len(sparseLabels) {
		return nil, fmt.Errorf("%d sparse points but %d sparse labels: %w", len(sparsePoints), len(sparseLabels), data.ErrDimensionMismatch)
	}
	if len(sparsePoints) == 0 {
		return nil, fmt.Errorf("no sparse points to interpolate from: %w", data.ErrEmptyInput)
	}
	if _, err := spatial.ClampK(k, len(sparsePoints)); err != nil {
		return nil, err
	}
	if _, err := sparseLabels.MaxLabel(); err != nil {
		return nil, err
	}

	output := make(data.LabelSet, len(densePoints))
	if len(densePoints) == 0 {
		return output, nil
	}

	index, err := in.builder.Build(sparsePoints)
	if err != nil {
		return nil, err
	}

	glog.V(1).Infof("interpolating %d dense points from %d sparse points, k=%d, workers=%d",
		len(densePoints), len(sparsePoints), k, in.workers)

	if err := in.resolveLabels(index, sparseLabels, densePoints, output, k); err != nil {
		return nil, err
	}

	return output, nil
}

func (in *Interpolator) resolveLabels(
	index spatial.Index,
	sparseLabels data.LabelSet,
	densePoints data.PointSet,
	output data.LabelSet,
	k int,
) error {
	numConsumers := in.workers

	// init channel where to submit work with a buffer 5 times greater than the number of consumers
	workChannel := make(chan *WorkUnit, numConsumers*5)

	// buffered so that every consumer can report its error without blocking
	errorChannel := make(chan error, numConsumers)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	producer := NewRangeProducer(len(densePoints), chunkSize)
	go producer.Produce(workChannel, &waitGroup)

	for i := 0; i < numConsumers; i++ {
		waitGroup.Add(1)
		consumer := NewVoteConsumer(index, sparseLabels, densePoints, output, k)
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	waitGroup.Wait()
	close(errorChannel)

	var errs []error
	for err := range errorChannel {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
