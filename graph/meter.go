package graph

import (
	"math"
	"sync/atomic"

	"github.com/lixenwraith/tickgraph/constant"
)

// Meter is a listener node measuring the level of its summed inputs
// Peak and RMS are published atomically for readers outside the engine thread
type Meter struct {
	*Base
	Listener

	peak  atomic.Uint64
	rms   atomic.Uint64
	decay float64
	held  float64
}

// NewMeter creates a meter over values
// Call Listen to attach it to the engine
func NewMeter(s Scheduler, values ...any) *Meter {
	n := &Meter{decay: constant.MeterPeakDecay}
	n.Base = NewBase(s, n, "meter")
	n.Listener = NewListener(n)
	n.FixAR()
	n.Append(values...)
	return n
}

// Peak returns the decaying absolute peak
func (n *Meter) Peak() float64 {
	return math.Float64frombits(n.peak.Load())
}

// RMS returns the root mean square of the last cell
func (n *Meter) RMS() float64 {
	return math.Float64frombits(n.rms.Load())
}

// Bang clears the held peak
func (n *Meter) Bang() {
	n.held = 0
	n.peak.Store(0)
	n.Base.Bang()
}

// Evaluate sums the inputs and updates the levels
func (n *Meter) Evaluate(tick uint64) Cell {
	if !n.Advance(tick) {
		return n.cell
	}
	n.sumInputs(tick)
	n.cell.Scale(n.mul, n.add)

	var sq, pk float64
	for _, x := range n.cell {
		sq += x * x
		pk = max(pk, math.Abs(x))
	}
	rms := 0.0
	if len(n.cell) > 0 {
		rms = math.Sqrt(sq / float64(len(n.cell)))
	}
	n.held = max(pk, n.held*n.decay)

	n.rms.Store(math.Float64bits(rms))
	n.peak.Store(math.Float64bits(n.held))
	return n.cell
}
