package graph

import (
	"slices"

	"github.com/lixenwraith/tickgraph/event"
)

var _ Stereo = (*RootMixer)(nil)

// RootMixer sums its inputs per channel and is the engine's entry into a graph
// Input changes are deferred to the next scheduling boundary
type RootMixer struct {
	*Base
	left  *Channel
	right *Channel

	// members is the logical input set, ahead of inputs until the boundary
	members map[Node]int
}

// NewRootMixer creates an idle mixer with no inputs
func NewRootMixer(s Scheduler) *RootMixer {
	m := &RootMixer{members: make(map[Node]int)}
	m.Base = NewBase(s, m, "mixer")
	m.FixAR()
	m.left = newChannel(s, m, "mixer.L")
	m.right = newChannel(s, m, "mixer.R")
	return m
}

// Left returns the left channel node
func (m *RootMixer) Left() *Channel {
	return m.left
}

// Right returns the right channel node
func (m *RootMixer) Right() *Channel {
	return m.right
}

// Contains reports logical membership, counting changes not yet applied
func (m *RootMixer) Contains(n Node) bool {
	return m.members[n] > 0
}

// Len returns the logical input count
func (m *RootMixer) Len() int {
	total := 0
	for _, c := range m.members {
		total += c
	}
	return total
}

// Append routes values into the mixer at the next boundary
func (m *RootMixer) Append(values ...any) {
	if len(values) == 0 {
		return
	}
	nodes := m.coerce(values)
	for _, n := range nodes {
		m.members[n]++
		n.Core().dac = m
	}
	m.sched.NextTick(func() {
		m.appendNodes(nodes)
	})
}

// Remove detaches nodes at the next boundary
func (m *RootMixer) Remove(nodes ...Node) {
	var gone []Node
	for _, n := range nodes {
		if m.members[n] > 0 {
			m.members[n]--
			if m.members[n] == 0 {
				delete(m.members, n)
			}
			gone = append(gone, n)
		}
	}
	if len(gone) == 0 {
		return
	}
	m.sched.NextTick(func() {
		m.Base.Remove(gone...)
	})
}

// RemoveAll detaches every input at the next boundary
func (m *RootMixer) RemoveAll() {
	clear(m.members)
	m.sched.NextTick(func() {
		m.Base.RemoveAll()
	})
}

// RemoveAt detaches the input at index at the next boundary
func (m *RootMixer) RemoveAt(index int) {
	if index < 0 || index >= len(m.inputs) {
		return
	}
	m.Remove(m.inputs[index])
}

// Play joins the engine's root set at the next boundary
func (m *RootMixer) Play() {
	join(m.sched, Roots, m, func() {
		m.Emit(event.KindPlay, nil)
	})
}

// Pause leaves the root set at the next boundary
// A Play not yet applied is cancelled outright
func (m *RootMixer) Pause() {
	if leave(m.sched, Roots, m, nil) {
		m.Emit(event.KindPause, nil)
	}
}

// IsPlaying reports whether the mixer is in the engine's root set
func (m *RootMixer) IsPlaying() bool {
	return m.sched.IsActive(Roots, m)
}

// Done signals that a recording routed through this mixer is complete
func (m *RootMixer) Done() {
	m.Emit(event.KindDone, nil)
}

// Evaluate sums stereo inputs per side and mono inputs into both sides
// left and right get mul/add, the mono cell is their average
func (m *RootMixer) Evaluate(tick uint64) Cell {
	if !m.Advance(tick) {
		return m.cell
	}

	cell := m.cell
	cellL := m.left.cell
	cellR := m.right.cell
	cellL.Zero()
	cellR.Zero()

	for _, in := range slices.Clone(m.inputs) {
		mono := Pull(in, tick)
		if st, ok := in.(Stereo); ok {
			cellL.Accumulate(st.Left().cell)
			cellR.Accumulate(st.Right().cell)
		} else {
			cellL.Accumulate(mono)
			cellR.Accumulate(mono)
		}
	}

	mul, add := m.mul, m.add
	for i := range cell {
		l := cellL[i]*mul + add
		r := cellR[i]*mul + add
		cellL[i] = l
		cellR[i] = r
		cell[i] = (l + r) * 0.5
	}

	// keep channel stamps in step so they return these cells for tick
	m.left.Advance(tick)
	m.right.Advance(tick)
	return cell
}
