package graph

import "github.com/lixenwraith/tickgraph/event"

// Timer gives its owner membership in the engine's timer set
// Timers are evaluated every tick for their side effects and need not feed a mixer
type Timer struct {
	owner Node
}

// NewTimer binds the capability to owner
func NewTimer(owner Node) Timer {
	return Timer{owner: owner}
}

// Start joins the timer set at the next boundary and emits start once joined
func (t Timer) Start() {
	b := t.owner.Core()
	join(b.sched, Timers, t.owner, func() {
		b.Emit(event.KindStart, nil)
	})
}

// Stop leaves the timer set at the next boundary and emits stop once left
// A Start not yet applied is cancelled without any event
func (t Timer) Stop() {
	b := t.owner.Core()
	leave(b.sched, Timers, t.owner, func() {
		b.Emit(event.KindStop, nil)
	})
}

// IsRunning reports membership in the timer set
func (t Timer) IsRunning() bool {
	return t.owner.Core().sched.IsActive(Timers, t.owner)
}
