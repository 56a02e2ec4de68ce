package interpolate

import (
	"fmt"
	"sync"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/spatial"
)

type Consumer interface {
	Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup)
}

// VoteConsumer resolves the labels of dense points by majority vote among their
// k nearest sparse neighbours. Each consumer writes only to the output positions
// of the work units it receives.
type VoteConsumer struct {
	index        spatial.Index
	sparseLabels data.LabelSet
	densePoints  data.PointSet
	output       data.LabelSet
	k            int
	voter        *MajorityVoter
}

func NewVoteConsumer(
	index spatial.Index,
	sparseLabels data.LabelSet,
	densePoints data.PointSet,
	output data.LabelSet,
	k int,
) *VoteConsumer {
	return &VoteConsumer{
		index:        index,
		sparseLabels: sparseLabels,
		densePoints:  densePoints,
		output:       output,
		k:            k,
		voter:        NewMajorityVoter(k),
	}
}

// Continually consumes WorkUnits submitted to a work channel writing the resolved labels
// to the output slice. After a failure the error is submitted to the error channel and the
// remaining work is drained without being processed, so that the producer never blocks.
func (c *VoteConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()

	failed := false
	for work := range workchan {
		if failed {
			continue
		}
		if err := c.doWork(work); err != nil {
			errchan <- err
			failed = true
		}
	}
}

func (c *VoteConsumer) doWork(work *WorkUnit) error {
	for i := work.Start; i < work.End; i++ {
		neighbors, err := c.index.QueryKNN(c.densePoints[i], c.k)
		if err != nil {
			return fmt.Errorf("dense point %d: %w", i, err)
		}
		c.output[i] = c.voter.Vote(c.sparseLabels, neighbors)
	}
	return nil
}
