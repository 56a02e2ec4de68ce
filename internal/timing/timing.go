// Package timing accumulates the wall clock time spent in each phase of a file.
package timing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Phase string

const (
	LoadData    Phase = "load_data"
	Predict     Phase = "predict"
	Interpolate Phase = "interpolate"
	WriteData   Phase = "write_data"
)

// Phases lists the phases in reporting order
var Phases = []Phase{LoadData, Predict, Interpolate, WriteData}

// Timing holds the time spent per phase for one file. The zero value is ready to use.
type Timing struct {
	LoadData    time.Duration
	Predict     time.Duration
	Interpolate time.Duration
	WriteData   time.Duration
}

// Add charges d to the given phase. Calling Add on a nil Timing is a no-op.
func (t *Timing) Add(phase Phase, d time.Duration) {
	if t == nil {
		return
	}
	switch phase {
	case LoadData:
		t.LoadData += d
	case Predict:
		t.Predict += d
	case Interpolate:
		t.Interpolate += d
	case WriteData:
		t.WriteData += d
	}
}

// Track starts measuring the phase and returns the function that stops it.
//
//	defer timer.Track(timing.Predict)()
func (t *Timing) Track(phase Phase) func() {
	start := time.Now()
	return func() {
		t.Add(phase, time.Since(start))
	}
}

// Get returns the duration charged to the phase
func (t *Timing) Get(phase Phase) time.Duration {
	switch phase {
	case LoadData:
		return t.LoadData
	case Predict:
		return t.Predict
	case Interpolate:
		return t.Interpolate
	case WriteData:
		return t.WriteData
	}
	return 0
}

// Total returns the sum of all phases
func (t *Timing) Total() time.Duration {
	return t.LoadData + t.Predict + t.Interpolate + t.WriteData
}

func (t *Timing) Reset() {
	*t = Timing{}
}

// Seconds returns the phase duration in seconds rounded to the millisecond
func (t *Timing) Seconds(phase Phase) decimal.Decimal {
	return decimal.NewFromInt(t.Get(phase).Microseconds()).Shift(-6).Round(3)
}

// String formats the record as "load_data=0.120s predict=1.503s ..."
func (t *Timing) String() string {
	parts := make([]string, 0, len(Phases))
	for _, phase := range Phases {
		parts = append(parts, fmt.Sprintf("%s=%ss", phase, t.Seconds(phase).StringFixed(3)))
	}
	return strings.Join(parts, " ")
}
