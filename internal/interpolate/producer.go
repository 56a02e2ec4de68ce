package interpolate

import "sync"

type Producer interface {
	Produce(work chan *WorkUnit, wg *sync.WaitGroup)
}

// RangeProducer splits [0, total) in consecutive chunks of at most chunkSize positions
type RangeProducer struct {
	total     int
	chunkSize int
}

func NewRangeProducer(total int, chunkSize int) *RangeProducer {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	return &RangeProducer{
		total:     total,
		chunkSize: chunkSize,
	}
}

// Submits WorkUnits covering the whole range to the provided work channel.
// Closes the channel when all work is submitted.
func (p *RangeProducer) Produce(work chan *WorkUnit, wg *sync.WaitGroup) {
	for start := 0; start < p.total; start += p.chunkSize {
		end := start + p.chunkSize
		if end > p.total {
			end = p.total
		}
		work <- &WorkUnit{Start: start, End: end}
	}
	close(work)
	wg.Done()
}
