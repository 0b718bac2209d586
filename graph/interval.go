package graph

import (
	"github.com/lixenwraith/tickgraph/event"
)

// Interval is a timer node that bangs its inputs every period
// The bang event carries the running count; a positive limit stops the timer when reached
type Interval struct {
	*Base
	Timer

	period  float64
	limit   int
	count   int
	elapsed float64
}

// NewInterval creates a stopped interval with period ms
func NewInterval(s Scheduler, period float64) *Interval {
	n := &Interval{period: period}
	n.Base = NewBase(s, n, "interval")
	n.Timer = NewTimer(n)
	n.FixKR()
	return n
}

// Period returns the interval in milliseconds
func (n *Interval) Period() float64 {
	return n.period
}

// SetPeriod changes the interval, non-positive values are ignored
func (n *Interval) SetPeriod(ms float64) {
	if ms > 0 {
		n.period = ms
	}
}

// Limit returns the bang limit, 0 is unlimited
func (n *Interval) Limit() int {
	return n.limit
}

// SetLimit changes the bang limit
func (n *Interval) SetLimit(v int) {
	n.limit = max(v, 0)
}

// Count returns the number of bangs fired since the last reset
func (n *Interval) Count() int {
	return n.count
}

// Bang resets the count and phase, the bang event carries count 0
func (n *Interval) Bang() {
	n.count = 0
	n.elapsed = 0
	n.Emit(event.KindBang, 0)
}

// Evaluate advances the clock by one cell and fires when the period elapses
func (n *Interval) Evaluate(tick uint64) Cell {
	if !n.Advance(tick) {
		return n.cell
	}
	if n.period <= 0 || (n.limit > 0 && n.count >= n.limit) {
		return n.cell
	}

	n.elapsed += float64(len(n.cell)) * 1000 / float64(n.sched.SampleRate())
	for n.elapsed >= n.period {
		n.elapsed -= n.period
		n.fire()
		if n.limit > 0 && n.count >= n.limit {
			n.Stop()
			break
		}
	}
	return n.cell
}

func (n *Interval) fire() {
	n.count++
	n.cell.Fill(float64(n.count)*n.mul + n.add)
	for _, in := range n.inputs {
		in.Bang()
	}
	n.Emit(event.KindBang, n.count)
}

// Configure applies interval, limit, mul and add
func (n *Interval) Configure(opts map[string]any) error {
	rest := n.configure(opts)
	for k, v := range rest {
		if k != "interval" && k != "limit" {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return badOption(n.kind, k, v)
		}
		if k == "interval" {
			n.SetPeriod(f)
		} else {
			n.SetLimit(int(f))
		}
		delete(rest, k)
	}
	return unknownOptions(n.kind, rest)
}
