package engine

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickgraph/event"
	"github.com/lixenwraith/tickgraph/graph"
)

// panicNode fails every evaluation
type panicNode struct {
	*graph.Base
}

func newPanicNode(s graph.Scheduler) *panicNode {
	n := &panicNode{}
	n.Base = graph.NewBase(s, n, "panic")
	return n
}

func (n *panicNode) Evaluate(tick uint64) graph.Cell {
	panic("evaluation failed")
}

func assertAll(t *testing.T, want float64, got []float64) {
	t.Helper()
	for i, v := range got {
		if !assert.InDelta(t, want, v, 1e-12, "sample %d", i) {
			return
		}
	}
}

// TestAutoStartStop verifies the engine runs while it has work and opens the device once
func TestAutoStartStop(t *testing.T) {
	dev := &TestDevice{}
	eng := NewTestEngine(WithDevice(dev))
	var states []event.Kind
	eng.On(event.KindPlay, func(e event.Event) { states = append(states, e.Kind) })
	eng.On(event.KindPause, func(e event.Event) { states = append(states, e.Kind) })

	eng.Lock()
	n := graph.NewNumber(eng, 0.5)
	n.Play()
	eng.Unlock()

	assert.Equal(t, StateRunning, eng.State())
	assert.Equal(t, 1, eng.Active(graph.Roots))
	assert.Equal(t, StreamConfig{SampleRate: 8000, Channels: 2, BlockSize: 256}, dev.Last)

	left, right := make([]float64, eng.StreamSize()), make([]float64, eng.StreamSize())
	eng.Render(left, right)
	assertAll(t, 0.5, left)
	assertAll(t, 0.5, right)
	assert.Equal(t, uint64(8), eng.Tick())

	eng.Lock()
	n.Pause()
	eng.Unlock()
	assert.Equal(t, StateRunning, eng.State(), "pause takes effect at the boundary")

	eng.Render(left, right)
	assert.Equal(t, StateIdle, eng.State())
	assert.Equal(t, 0, eng.Active(graph.Roots))
	opened, closed := dev.Counts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
	assert.Equal(t, []event.Kind{event.KindPlay, event.KindPause}, states)

	// first tick still carried the node, the rest is silent
	assertAll(t, 0.5, left[:32])
	assertAll(t, 0, left[32:])
}

// TestNextTickOrdering verifies FIFO order and deferral of nested calls
func TestNextTickOrdering(t *testing.T) {
	eng := NewTestEngine()

	ran := false
	eng.NextTick(func() { ran = true })
	assert.True(t, ran, "idle engine runs deferred calls at once")

	eng.Lock()
	defer eng.Unlock()
	iv := graph.NewInterval(eng, 1000)
	iv.Start()
	require.Equal(t, StateRunning, eng.State())

	var order []string
	var ticks []uint64
	eng.NextTick(func() {
		order = append(order, "a")
		ticks = append(ticks, eng.Tick())
		eng.NextTick(func() {
			order = append(order, "c")
			ticks = append(ticks, eng.Tick())
		})
	})
	eng.NextTick(func() {
		order = append(order, "b")
		ticks = append(ticks, eng.Tick())
	})
	assert.Empty(t, order)

	eng.Process()
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, []uint64{1, 1, 2}, ticks)
}

// TestTimersDriveIdleOutput verifies timers run without producing sound
func TestTimersDriveIdleOutput(t *testing.T) {
	eng := NewTestEngine()
	eng.Lock()
	defer eng.Unlock()

	iv := graph.NewInterval(eng, 4) // one cell is 4 ms at 8 kHz
	iv.Start()
	eng.Process()

	assert.Equal(t, 8, iv.Count())
	left, _ := eng.Output()
	assertAll(t, 0, left)
	assert.InDelta(t, 32.0, eng.CurrentTime(), 1e-9)
}

// TestAmpAndClip verifies gain and the hard limit
func TestAmpAndClip(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	eng := NewTestEngine(WithMetrics(m))
	eng.Lock()
	defer eng.Unlock()

	n := graph.NewNumber(eng, 0.5)
	n.Play()
	eng.SetAmp(0.5)
	eng.Process()
	left, right := eng.Output()
	assertAll(t, 0.25, left)
	assertAll(t, 0.25, right)
	assert.Zero(t, testutil.ToFloat64(m.Clipped))

	eng.SetAmp(1)
	n.SetMul(1e9)
	eng.Process()
	left, right = eng.Output()
	assertAll(t, 1, left)
	assertAll(t, 1, right)

	n.SetMul(-1e9)
	eng.Process()
	left, _ = eng.Output()
	assertAll(t, -1, left)
	assert.Equal(t, float64(4*eng.StreamSize()), testutil.ToFloat64(m.Clipped))

	n.SetMul(math.Inf(1))
	eng.Process()
	left, right = eng.Output()
	assertAll(t, 1, left)
	assertAll(t, 1, right)

	n.SetMul(math.Inf(-1))
	eng.Process()
	left, _ = eng.Output()
	assertAll(t, -1, left)
	assert.Equal(t, float64(8*eng.StreamSize()), testutil.ToFloat64(m.Clipped))

	// +Inf and -Inf roots sum to NaN, which is silenced and counted
	n.SetMul(math.Inf(1))
	neg := graph.NewNumber(eng, 0.5)
	neg.SetMul(math.Inf(-1))
	neg.Play()
	eng.Process()
	eng.Process()
	left, right = eng.Output()
	assertAll(t, 0, left)
	assertAll(t, 0, right)
	assert.Equal(t, float64(12*eng.StreamSize()), testutil.ToFloat64(m.Clipped))
}

// TestProcessIterationAllocs verifies walking the active sets does not allocate per tick
func TestProcessIterationAllocs(t *testing.T) {
	eng := NewTestEngine()
	eng.Lock()
	defer eng.Unlock()

	n := graph.NewNumber(eng, 0.5)
	n.Play()
	// move past the ticks small enough to box without allocating
	for range 40 {
		eng.Process()
	}
	base := testing.AllocsPerRun(20, eng.Process)

	for range 3 {
		graph.NewInterval(eng, 1e9).Start()
	}
	eng.Process()
	require.Equal(t, 3, eng.Active(graph.Timers))
	assert.Equal(t, base, testing.AllocsPerRun(20, eng.Process))
}

// TestClip covers the limiter including NaN
func TestClip(t *testing.T) {
	buf := []float64{2, -3, 0.5, math.NaN(), 1}
	assert.Equal(t, 3, clip(buf, 1))
	assert.Equal(t, []float64{1, -1, 0.5, 0, 1}, buf)

	buf = []float64{0.5, -0.5}
	assert.Equal(t, 0, clip(buf, 2))
	assert.Equal(t, []float64{1, -1}, buf)
}

// TestStereoRootMixing verifies mixer sides land in their stream channels
func TestStereoRootMixing(t *testing.T) {
	eng := NewTestEngine()
	eng.Lock()
	defer eng.Unlock()

	stereo := graph.NewRootMixer(eng)
	stereo.Append(0.25)
	stereo.Play()
	mono := graph.NewNumber(eng, 0.5)
	mono.Play() // the engine is running, so this joins after the next tick
	eng.Process()
	l, _ := eng.Output()
	assertAll(t, 0.25, l[:32])
	assertAll(t, 0.75, l[32:])

	eng.Process()
	l, r := eng.Output()
	assertAll(t, 0.75, l)
	assertAll(t, 0.75, r)
	assert.Equal(t, 2, eng.Active(graph.Roots))
}

// TestListenerAutoStartAndDrop verifies listeners count as work and leave once empty
func TestListenerAutoStartAndDrop(t *testing.T) {
	eng := NewTestEngine()
	eng.Lock()
	defer eng.Unlock()

	src := graph.NewNumber(eng, 0.5)
	meter := graph.NewMeter(eng)
	unlistened := 0
	meter.On(event.KindUnlisten, func(event.Event) { unlistened++ })

	meter.Listen(src)
	assert.Equal(t, StateRunning, eng.State())
	assert.True(t, meter.IsListening())

	eng.Process()
	assert.InDelta(t, 0.5, meter.Peak(), 1e-12)
	left, _ := eng.Output()
	assertAll(t, 0, left)

	// dropping the input without Unlisten leaves an idle listener
	meter.Remove(src)
	eng.Process()
	assert.False(t, meter.IsListening())
	assert.Equal(t, 1, unlistened)
	assert.Equal(t, StateIdle, eng.State())
}

// TestFaultIsolation verifies a panicking node is silenced and counted
func TestFaultIsolation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	eng := NewTestEngine(WithMetrics(m))
	eng.Lock()
	defer eng.Unlock()

	mixer := graph.NewRootMixer(eng)
	mixer.Append(newPanicNode(eng), 0.25)
	mixer.Play()

	require.NotPanics(t, eng.Process)
	left, _ := eng.Output()
	assertAll(t, 0.25, left)
	assert.Equal(t, float64(8), testutil.ToFloat64(m.Faults))
	assert.Equal(t, float64(8), testutil.ToFloat64(m.Ticks))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Active.WithLabelValues("roots")))
}

// TestReset verifies all work and removable listeners are dropped
func TestReset(t *testing.T) {
	dev := &TestDevice{}
	eng := NewTestEngine(WithDevice(dev))
	processed, resets := 0, 0
	eng.On(event.KindProcess, func(event.Event) { processed++ })
	eng.OnUnremovable(event.KindReset, func(event.Event) { resets++ })

	eng.Lock()
	n := graph.NewNumber(eng, 0.5)
	n.Play()
	iv := graph.NewInterval(eng, 1000)
	iv.Start()
	eng.Process()
	eng.NextTick(func() { t.Error("pending callback survived reset") })
	eng.Unlock()
	require.Equal(t, 1, processed)

	eng.Reset()
	assert.Equal(t, StateIdle, eng.State())
	assert.Equal(t, 0, eng.Active(graph.Roots))
	assert.Equal(t, 0, eng.Active(graph.Timers))
	assert.Equal(t, 1, resets)
	assert.Equal(t, 0, eng.Listeners(event.KindProcess))
	assert.Zero(t, eng.CurrentTime())
	_, closed := dev.Counts()
	assert.Equal(t, 1, closed)

	// the graph can be played again afterwards
	eng.Lock()
	n.Play()
	eng.Unlock()
	assert.Equal(t, StateRunning, eng.State())
}

// TestSetupClamps verifies nearest accepted values and the idle requirement
func TestSetupClamps(t *testing.T) {
	eng := New(Config{SampleRate: 44000, CellSize: 100})
	cfg := eng.Config()
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 128, cfg.CellSize)
	assert.Equal(t, DefaultConfig().StreamMsec, cfg.StreamMsec)
	assert.Equal(t, DefaultConfig().RecordThrottle, cfg.RecordThrottle)

	require.NoError(t, eng.Setup(Config{SampleRate: 47000, CellSize: 48, StreamMsec: 20}))
	assert.Equal(t, 48000, eng.SampleRate())
	assert.Equal(t, 32, eng.CellSize(), "ties resolve to the lower size")
	assert.Equal(t, 1024, eng.StreamSize())

	eng.Lock()
	graph.NewNumber(eng, 1).Play()
	eng.Unlock()
	assert.ErrorIs(t, eng.Setup(DefaultConfig()), ErrBusy)
}

// TestSetupDeviceCeiling verifies the device rate caps the engine rate
func TestSetupDeviceCeiling(t *testing.T) {
	eng := New(Config{SampleRate: 48000}, WithDevice(&TestDevice{MaxRate: 22050}))
	assert.Equal(t, 22050, eng.SampleRate())
}

// TestAdjustSamples verifies the power of two stream size bounds
func TestAdjustSamples(t *testing.T) {
	eng := New(DefaultConfig())
	assert.Equal(t, 1024, eng.AdjustSamples(44100))
	assert.Equal(t, 256, eng.AdjustSamples(8000))

	require.NoError(t, eng.Setup(Config{StreamMsec: 1000}))
	assert.Equal(t, 16384, eng.AdjustSamples(48000))
	assert.Equal(t, 0, eng.StreamSize()%eng.CellSize())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "recording", StateRecording.String())
	assert.Equal(t, "unknown", State(9).String())
}
