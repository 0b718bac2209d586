package graph

// ActiveSet names one of the engine's membership sets
type ActiveSet int

const (
	// Roots holds playing root mixers, summed into the output stream
	Roots ActiveSet = iota
	// Timers holds nodes evaluated every tick for side effects
	Timers
	// Listeners holds passive nodes evaluated after the roots
	Listeners
)

func (s ActiveSet) String() string {
	switch s {
	case Roots:
		return "roots"
	case Timers:
		return "timers"
	case Listeners:
		return "listeners"
	default:
		return "unknown"
	}
}

// Scheduler is the engine surface nodes depend on
// Implemented by engine.Engine; graph never imports the engine
type Scheduler interface {
	// SampleRate returns the engine sample rate in Hz
	SampleRate() int
	// CellSize returns the per-tick block size in samples
	CellSize() int
	// Tick returns the last processed tick
	Tick() uint64

	// NextTick defers fn to the next scheduling boundary, or runs it now when idle
	NextTick(fn func())

	// Activate inserts n into set, returns false if already present
	Activate(set ActiveSet, n Node) bool
	// IsActive reports membership of n in set
	IsActive(set ActiveSet, n Node) bool
	// Deactivated notifies that an entry left a set at the last boundary
	Deactivated()

	// Fault reports a recovered panic from n's evaluation
	Fault(n Node, err error)

	// Factory returns the node factory used for value coercion
	Factory() *Factory
}

// Membership is the two-phase add/remove state a node carries for the engine sets
// pendingAdd is set while an insertion waits for its boundary
// removeCheck is consumed either by that insertion (cancel) or by the engine sweep
type Membership struct {
	pendingAdd  bool
	removeCheck bool
}

// MarkRemoval flags the node for removal at the next sweep
func (m *Membership) MarkRemoval() {
	m.removeCheck = true
}

// ConsumeRemoval clears and returns the removal flag
func (m *Membership) ConsumeRemoval() bool {
	r := m.removeCheck
	m.removeCheck = false
	return r
}

// RemovalPending reports the removal flag without clearing it
func (m *Membership) RemovalPending() bool {
	return m.removeCheck
}

// AddPending reports whether an insertion is waiting for its boundary
func (m *Membership) AddPending() bool {
	return m.pendingAdd
}

// join runs the deferred insertion shared by roots, timers and listeners
func join(s Scheduler, set ActiveSet, n Node, onJoin func()) {
	b := n.Core()
	b.membership.pendingAdd = true
	s.NextTick(func() {
		b.membership.pendingAdd = false
		if b.membership.ConsumeRemoval() {
			return
		}
		if s.Activate(set, n) && onJoin != nil {
			onJoin()
		}
	})
}

// leave flags n for removal and defers the notification when n is active
// Returns true when n was active
func leave(s Scheduler, set ActiveSet, n Node, onLeave func()) bool {
	b := n.Core()
	active := s.IsActive(set, n)
	if !active && !b.membership.pendingAdd {
		return false
	}
	b.membership.MarkRemoval()
	if active {
		s.NextTick(func() {
			s.Deactivated()
			if onLeave != nil {
				onLeave()
			}
		})
	}
	return active
}
