package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickgraph/event"
)

// TestMixerSumsWithScaling verifies (a+b)*mul+add on both channels
func TestMixerSumsWithScaling(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	m := NewRootMixer(s)
	m.Append(0.25, 0.5)
	m.SetMul(2)
	m.SetAdd(0.1)

	assert.Equal(t, 2, m.Len())
	assert.Empty(t, m.Inputs(), "inputs change at the boundary")
	s.flush()
	require.Len(t, m.Inputs(), 2)

	cell := Pull(m, 1)
	for i := range cell {
		assert.InDelta(t, 1.6, m.Left().Cell()[i], 1e-12)
		assert.InDelta(t, 1.6, m.Right().Cell()[i], 1e-12)
		assert.InDelta(t, 1.6, cell[i], 1e-12)
	}
}

// TestMixerStereoInput verifies stereo inputs keep their sides
func TestMixerStereoInput(t *testing.T) {
	s := newFakeScheduler(1000, 2)
	inner := NewRootMixer(s)
	inner.Append(0.5)
	s.flush()

	outer := NewRootMixer(s)
	outer.Append(inner, 0.25)
	s.flush()

	Pull(outer, 1)
	assert.Equal(t, Cell{0.75, 0.75}, outer.Left().Cell())
	assert.Equal(t, Cell{0.75, 0.75}, outer.Right().Cell())
}

// TestChannelDrivesParent verifies pulling a channel evaluates the mixer once
func TestChannelDrivesParent(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	p := newProbe(s, 0.5)
	m := NewRootMixer(s)
	m.Append(p)
	s.flush()

	assert.Equal(t, Cell{0.5, 0.5, 0.5, 0.5}, Pull(m.Left(), 1))
	assert.Equal(t, Cell{0.5, 0.5, 0.5, 0.5}, Pull(m.Right(), 1))
	assert.Equal(t, 1, p.evals)
	assert.Same(t, Node(m), m.Left().Parent())
}

// TestMixerRemoveDeferred verifies removal waits for the boundary
func TestMixerRemoveDeferred(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	a, b := newProbe(s, 1), newProbe(s, 2)
	m := NewRootMixer(s)
	m.Append(a, b)
	s.flush()

	m.Remove(a)
	assert.False(t, m.Contains(a))
	assert.Len(t, m.Inputs(), 2)
	s.flush()
	assert.Equal(t, []Node{b}, m.Inputs())

	m.RemoveAt(0)
	s.flush()
	assert.Empty(t, m.Inputs())
	assert.Equal(t, 0, m.Len())
}

// TestMixerPlayPauseEvents verifies play fires on join and a pending play can be cancelled
func TestMixerPlayPauseEvents(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	m := NewRootMixer(s)
	var events []event.Kind
	m.On(event.KindPlay, func(e event.Event) { events = append(events, e.Kind) })
	m.On(event.KindPause, func(e event.Event) { events = append(events, e.Kind) })

	m.Play()
	m.Pause()
	s.flush()
	assert.False(t, m.IsPlaying())
	assert.Empty(t, events, "cancelled before the boundary")

	m.Play()
	s.flush()
	assert.True(t, m.IsPlaying())
	m.Pause()
	s.step()
	assert.False(t, m.IsPlaying())
	assert.Equal(t, []event.Kind{event.KindPlay, event.KindPause}, events)
}

// TestMixerDone verifies done is emitted to subscribers
func TestMixerDone(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	m := NewRootMixer(s)
	done := false
	m.Once(event.KindDone, func(event.Event) { done = true })
	m.Done()
	assert.True(t, done)
}

// TestSetDAC verifies a node moves between mixers
func TestSetDAC(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	p := newProbe(s, 1)
	a, b := NewRootMixer(s), NewRootMixer(s)

	p.SetDAC(a)
	s.flush()
	assert.Same(t, a, p.DAC())

	p.SetDAC(b)
	s.flush()
	assert.Same(t, b, p.DAC())
	assert.False(t, a.Contains(p))
	assert.Empty(t, a.Inputs())
	assert.Equal(t, []Node{Node(p)}, b.Inputs())
}
