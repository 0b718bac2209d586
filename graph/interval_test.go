package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickgraph/event"
)

// TestTimerStartStop verifies membership changes at the boundary with events
func TestTimerStartStop(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	iv := NewInterval(s, 1000)
	var events []event.Kind
	iv.On(event.KindStart, func(e event.Event) { events = append(events, e.Kind) })
	iv.On(event.KindStop, func(e event.Event) { events = append(events, e.Kind) })

	iv.Start()
	assert.False(t, iv.IsRunning())
	s.flush()
	assert.True(t, iv.IsRunning())

	iv.Stop()
	assert.True(t, iv.IsRunning(), "still active until the sweep")
	s.step()
	assert.False(t, iv.IsRunning())
	assert.Equal(t, []event.Kind{event.KindStart, event.KindStop}, events)
}

// TestTimerCancelBeforeBoundary verifies a start followed by stop never joins
func TestTimerCancelBeforeBoundary(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	iv := NewInterval(s, 1000)
	fired := 0
	iv.On(event.KindStart, func(event.Event) { fired++ })
	iv.On(event.KindStop, func(event.Event) { fired++ })

	iv.Start()
	iv.Stop()
	s.flush()
	assert.False(t, iv.IsRunning())
	assert.Zero(t, fired)
	assert.False(t, iv.Membership().RemovalPending(), "removal flag consumed by the cancelled start")

	// stopping an inactive timer is a no-op
	iv.Stop()
	assert.False(t, iv.Membership().RemovalPending())
}

// TestIntervalFiresAndLimits verifies period, bang payloads, input bangs and the limit
func TestIntervalFiresAndLimits(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	iv := NewInterval(s, 8)
	iv.SetLimit(2)
	target := newProbe(s, 0)
	iv.Append(target)

	var counts []any
	iv.On(event.KindBang, func(e event.Event) { counts = append(counts, e.Payload) })
	stopped := false
	iv.On(event.KindStop, func(event.Event) { stopped = true })

	iv.Start()
	s.flush()

	for range 3 {
		s.step()
	}
	assert.Equal(t, []any{1}, counts)
	assert.Equal(t, Cell{1, 1, 1, 1}, iv.Cell())

	s.step()
	assert.Equal(t, []any{1, 2}, counts)
	assert.Equal(t, 2, target.bangs)
	assert.True(t, stopped)
	assert.False(t, iv.IsRunning())

	s.step()
	assert.Equal(t, 2, iv.Count())
}

// TestIntervalBangResets verifies bang restarts the count
func TestIntervalBangResets(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	iv := NewInterval(s, 4)
	iv.SetMul(10)
	var payloads []any
	iv.On(event.KindBang, func(e event.Event) { payloads = append(payloads, e.Payload) })

	Pull(iv, 1)
	Pull(iv, 2)
	require.Equal(t, 2, iv.Count())
	assert.Equal(t, Cell{20, 20, 20, 20}, iv.Cell())

	iv.Bang()
	assert.Equal(t, 0, iv.Count())
	assert.Equal(t, []any{1, 2, 0}, payloads)
}

// TestIntervalConfigure verifies interval and limit options
func TestIntervalConfigure(t *testing.T) {
	s := newFakeScheduler(1000, 4)
	iv := NewInterval(s, 0)

	require.NoError(t, iv.Configure(map[string]any{"interval": 250, "limit": 3, "add": 1}))
	assert.Equal(t, 250.0, iv.Period())
	assert.Equal(t, 3, iv.Limit())
	assert.Equal(t, 1.0, iv.Add())

	assert.ErrorIs(t, iv.Configure(map[string]any{"interval": "fast"}), ErrBadOption)
	assert.ErrorIs(t, iv.Configure(map[string]any{"swing": 0.1}), ErrUnknownOption)

	iv.SetPeriod(-5)
	assert.Equal(t, 250.0, iv.Period())
}
