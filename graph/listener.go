package graph

import "github.com/lixenwraith/tickgraph/event"

// Listener gives its owner membership in the engine's passive listener set
// Listeners are evaluated after the roots and never summed into the output
type Listener struct {
	owner Node
}

// NewListener binds the capability to owner
func NewListener(owner Node) Listener {
	return Listener{owner: owner}
}

// Listen appends values as inputs and joins the listener set at the next boundary
// Without inputs there is nothing to observe and the call only appends
func (l Listener) Listen(values ...any) {
	b := l.owner.Core()
	if len(values) > 0 {
		b.Append(values...)
	}
	if len(b.inputs) == 0 {
		return
	}
	join(b.sched, Listeners, l.owner, func() {
		b.Emit(event.KindListen, nil)
	})
}

// Unlisten removes nodes from the inputs and leaves the listener set once none remain
// Called without arguments it detaches every input
func (l Listener) Unlisten(nodes ...Node) {
	b := l.owner.Core()
	if len(nodes) > 0 {
		b.Remove(nodes...)
	} else {
		b.RemoveAll()
	}
	if len(b.inputs) > 0 {
		return
	}
	leave(b.sched, Listeners, l.owner, func() {
		b.Emit(event.KindUnlisten, nil)
	})
}

// IsListening reports membership in the listener set
func (l Listener) IsListening() bool {
	return l.owner.Core().sched.IsActive(Listeners, l.owner)
}
