// Package engine schedules tick-by-tick evaluation of node graphs and mixes the playing roots
package engine

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tickgraph/constant"
	"github.com/lixenwraith/tickgraph/event"
	"github.com/lixenwraith/tickgraph/graph"
	"github.com/lixenwraith/tickgraph/logging"
)

var _ graph.Scheduler = (*Engine)(nil)

// State is the engine's run state
type State int

const (
	// StateIdle has no active work, deferred calls run synchronously
	StateIdle State = iota
	// StateRunning has at least one active root, timer or listener
	StateRunning
	// StateRecording drives the graph offline into memory
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// Config holds engine settings
type Config struct {
	SampleRate int     `yaml:"sample_rate"`
	CellSize   int     `yaml:"cell_size"`
	StreamMsec int     `yaml:"stream_msec"`
	Amp        float64 `yaml:"amp"`

	// RecordThrottle is the busy time after which the recording loop sleeps for RecordYield
	RecordThrottle time.Duration `yaml:"record_throttle"`
	RecordYield    time.Duration `yaml:"record_yield"`
	// RecordLimit completes a recording once this much audio was rendered, 0 is unlimited
	RecordLimit time.Duration `yaml:"record_limit"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:     constant.DefaultSampleRate,
		CellSize:       constant.DefaultCellSize,
		StreamMsec:     constant.DefaultStreamMsec,
		Amp:            constant.DefaultAmp,
		RecordThrottle: constant.RecordThrottle,
		RecordYield:    constant.RecordYield,
	}
}

// Option configures an Engine at construction
type Option func(*Engine)

// WithDevice sets the output device opened on Idle to Running
func WithDevice(d Device) Option {
	return func(e *Engine) { e.device = d }
}

// WithMetrics records engine metrics into m
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock replaces the wall clock used to pace recordings
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// Engine is the tick scheduler and output mixer
//
// Graph mutation and Process are serialized by the engine lock. Device adapters take it
// through Render; code touching the graph from other goroutines wraps calls in Lock/Unlock.
type Engine struct {
	*event.Bus

	mu  sync.Mutex
	log zerolog.Logger
	cfg Config

	state    State
	tick     uint64
	channels int

	currentTime     float64
	currentTimeIncr float64

	streamSize int
	strmL      []float64
	strmR      []float64

	roots     []graph.Node
	timers    []graph.Node
	listeners []graph.Node
	nextTicks []func()

	factory *graph.Factory
	device  Device
	stream  Stream
	metrics *Metrics
	clock   Clock
	rec     *recording
}

// New creates an idle engine
// cfg is clamped to supported values
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		log:      logging.WithComponent("engine"),
		channels: constant.DefaultChannels,
		clock:    NewTimeProvider(),
	}
	e.Bus = event.NewBus(e)
	for _, opt := range opts {
		opt(e)
	}
	e.factory = graph.NewFactory(e)
	e.cfg = e.clampConfig(cfg)
	e.allocate()
	e.bindAutoPlay()
	return e
}

// bindAutoPlay registers the Idle/Running transitions on addObject/removeObject
func (e *Engine) bindAutoPlay() {
	e.OnUnremovable(event.KindAddObject, func(event.Event) {
		if e.state == StateIdle && e.hasWork() {
			e.start()
		}
	})
	e.OnUnremovable(event.KindRemoveObject, func(event.Event) {
		if e.state == StateRunning && !e.hasWork() {
			e.stop()
		}
	})
}

// === Locking ===

// Lock acquires the engine lock
func (e *Engine) Lock() {
	e.mu.Lock()
}

// Unlock releases the engine lock
func (e *Engine) Unlock() {
	e.mu.Unlock()
}

// === Configuration ===

// Setup replaces the configuration, only while Idle
// Unsupported sample rates and cell sizes are clamped to the nearest accepted value
func (e *Engine) Setup(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return ErrBusy
	}
	e.cfg = e.clampConfig(cfg)
	e.allocate()
	return nil
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) clampConfig(cfg Config) Config {
	def := DefaultConfig()

	rate := nearest(constant.AcceptedSampleRates, cfg.SampleRate, def.SampleRate)
	if rl, ok := e.device.(RateLimiter); ok {
		if limit := rl.MaxSampleRate(); limit > 0 && rate > limit {
			rate = nearest(constant.AcceptedSampleRates, limit, def.SampleRate)
			if rate > limit {
				rate = constant.AcceptedSampleRates[0]
			}
		}
	}
	if rate != cfg.SampleRate {
		e.log.Warn().Int("requested", cfg.SampleRate).Int("using", rate).Msg("sample rate not supported, clamped")
	}
	cfg.SampleRate = rate

	cell := nearest(constant.AcceptedCellSizes, cfg.CellSize, def.CellSize)
	if cell != cfg.CellSize {
		e.log.Warn().Int("requested", cfg.CellSize).Int("using", cell).Msg("cell size not supported, clamped")
	}
	cfg.CellSize = cell

	if cfg.StreamMsec <= 0 {
		cfg.StreamMsec = def.StreamMsec
	}
	if cfg.RecordThrottle <= 0 {
		cfg.RecordThrottle = def.RecordThrottle
	}
	if cfg.RecordYield < 0 {
		cfg.RecordYield = 0
	}
	if cfg.RecordLimit < 0 {
		cfg.RecordLimit = 0
	}
	if math.IsNaN(cfg.Amp) {
		cfg.Amp = def.Amp
	}
	return cfg
}

// nearest returns the accepted value closest to v, ties resolve to the lower one
// A non-positive v selects def
func nearest(accepted []int, v, def int) int {
	if v <= 0 {
		return def
	}
	best := accepted[0]
	for _, a := range accepted[1:] {
		if absInt(a-v) < absInt(best-v) {
			best = a
		}
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// AdjustSamples returns the stream block size for rate: a power of two
// covering StreamMsec, bounded to [2^8, 2^14] and a multiple of the cell size
func (e *Engine) AdjustSamples(rate int) int {
	samples := float64(e.cfg.StreamMsec) / 1000 * float64(rate)
	bits := constant.MinStreamBits
	if samples > 0 {
		bits = int(math.Ceil(math.Log2(samples)))
	}
	bits = min(max(bits, constant.MinStreamBits), constant.MaxStreamBits)
	return 1 << bits
}

func (e *Engine) allocate() {
	e.currentTimeIncr = float64(e.cfg.CellSize) * 1000 / float64(e.cfg.SampleRate)
	e.streamSize = e.AdjustSamples(e.cfg.SampleRate)
	e.strmL = make([]float64, e.streamSize)
	e.strmR = make([]float64, e.streamSize)
}

// === Scheduler surface ===

// SampleRate returns the engine rate in Hz
func (e *Engine) SampleRate() int {
	return e.cfg.SampleRate
}

// CellSize returns the per-tick block size
func (e *Engine) CellSize() int {
	return e.cfg.CellSize
}

// Channels returns the output channel count
func (e *Engine) Channels() int {
	return e.channels
}

// StreamSize returns the output-stream block size
func (e *Engine) StreamSize() int {
	return e.streamSize
}

// Tick returns the last processed tick
func (e *Engine) Tick() uint64 {
	return e.tick
}

// CurrentTime returns the logical clock in milliseconds
func (e *Engine) CurrentTime() float64 {
	return e.currentTime
}

// State returns the run state
func (e *Engine) State() State {
	return e.state
}

// Amp returns the global output gain
func (e *Engine) Amp() float64 {
	return e.cfg.Amp
}

// SetAmp changes the global output gain
func (e *Engine) SetAmp(v float64) {
	if !math.IsNaN(v) {
		e.cfg.Amp = v
	}
}

// Factory returns the node factory bound to this engine
func (e *Engine) Factory() *graph.Factory {
	return e.factory
}

// Output returns the last rendered stream block, valid until the next Process
func (e *Engine) Output() (left, right []float64) {
	return e.strmL, e.strmR
}

// NextTick runs fn at the next tick boundary, or immediately while Idle
func (e *Engine) NextTick(fn func()) {
	if fn == nil {
		return
	}
	if e.state == StateIdle {
		fn()
		return
	}
	e.nextTicks = append(e.nextTicks, fn)
}

// Activate inserts n into set and emits addObject
func (e *Engine) Activate(set graph.ActiveSet, n graph.Node) bool {
	list := e.set(set)
	if list == nil || slices.Contains(*list, n) {
		return false
	}
	*list = append(*list, n)
	e.metrics.setActive(set.String(), len(*list))
	e.Emit(event.KindAddObject, n)
	return true
}

// IsActive reports membership of n in set
func (e *Engine) IsActive(set graph.ActiveSet, n graph.Node) bool {
	list := e.set(set)
	return list != nil && slices.Contains(*list, n)
}

// Deactivated emits removeObject after an entry left a set
func (e *Engine) Deactivated() {
	e.Emit(event.KindRemoveObject, nil)
}

// Fault counts a node failure isolated during evaluation
func (e *Engine) Fault(n graph.Node, err error) {
	e.metrics.fault()
}

// Active returns the number of entries in set
func (e *Engine) Active(set graph.ActiveSet) int {
	if list := e.set(set); list != nil {
		return len(*list)
	}
	return 0
}

func (e *Engine) set(set graph.ActiveSet) *[]graph.Node {
	switch set {
	case graph.Roots:
		return &e.roots
	case graph.Timers:
		return &e.timers
	case graph.Listeners:
		return &e.listeners
	default:
		return nil
	}
}

func (e *Engine) hasWork() bool {
	return len(e.roots) > 0 || len(e.timers) > 0 || len(e.listeners) > 0
}

// === Run state ===

func (e *Engine) start() {
	e.state = StateRunning
	e.allocate()
	e.openStream()
	e.log.Debug().Int("sample_rate", e.cfg.SampleRate).Int("stream_size", e.streamSize).Msg("engine running")
	e.Emit(event.KindPlay, nil)
}

func (e *Engine) stop() {
	e.state = StateIdle
	e.closeStream()
	e.log.Debug().Uint64("tick", e.tick).Msg("engine idle")
	e.Emit(event.KindPause, nil)
}

func (e *Engine) openStream() {
	if e.device == nil || e.stream != nil {
		return
	}
	stream, err := e.device.Open(e, StreamConfig{
		SampleRate: e.cfg.SampleRate,
		Channels:   e.channels,
		BlockSize:  e.streamSize,
	})
	if err != nil {
		e.log.Error().Err(err).Msg("failed to open output stream")
		return
	}
	e.stream = stream
}

func (e *Engine) closeStream() {
	if e.stream == nil {
		return
	}
	if err := e.stream.Close(); err != nil {
		e.log.Warn().Err(err).Msg("failed to close output stream")
	}
	e.stream = nil
}

// Reset drops all active work, pending callbacks and removable engine listeners
// A pending recording is rejected with ErrRecordingAborted
func (e *Engine) Reset() {
	e.mu.Lock()
	rec := e.reset()
	e.mu.Unlock()
	if rec != nil {
		rec.abort(ErrRecordingAborted)
	}
}

// reset clears the engine and returns a detached recording to abort outside the lock
func (e *Engine) reset() *recording {
	rec := e.rec
	e.rec = nil
	e.clearWork()
	e.Clear()
	if e.state != StateIdle {
		e.state = StateIdle
		e.closeStream()
	}
	e.Emit(event.KindReset, nil)
	if rec != nil {
		e.metrics.recording("aborted")
	}
	return rec
}

func (e *Engine) clearWork() {
	e.currentTime = 0
	e.nextTicks = nil
	e.roots = nil
	e.timers = nil
	e.listeners = nil
	for _, set := range []graph.ActiveSet{graph.Roots, graph.Timers, graph.Listeners} {
		e.metrics.setActive(set.String(), 0)
	}
}

// === Processing ===

// Render processes one block under the engine lock and copies the stream into left and right
func (e *Engine) Render(left, right []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Process()
	copy(left, e.strmL)
	copy(right, e.strmR)
}

// Process renders one output-stream block into Output
// The caller holds the engine lock
func (e *Engine) Process() {
	began := time.Now()

	strmL, strmR := e.strmL, e.strmR
	clear(strmL)
	clear(strmR)

	cellSize := e.cfg.CellSize
	n := e.streamSize / cellSize
	offset := 0

	for range n {
		e.tick++
		tick := e.tick

		// range reads each set once, joins append past it and sweep runs between phases
		for _, t := range e.timers {
			graph.Pull(t, tick)
		}

		for _, root := range e.roots {
			mono := graph.Pull(root, tick)
			var cellL, cellR graph.Cell = mono, mono
			if st, ok := root.(graph.Stereo); ok {
				cellL, cellR = st.Left().Cell(), st.Right().Cell()
			}
			addAt(strmL[offset:offset+cellSize], cellL)
			addAt(strmR[offset:offset+cellSize], cellR)
		}
		offset += cellSize

		for _, l := range e.listeners {
			graph.Pull(l, tick)
			e.dropIdleListener(l)
		}

		e.sweep()
		e.currentTime += e.currentTimeIncr

		pending := e.nextTicks
		e.nextTicks = nil
		for _, fn := range pending {
			fn()
		}
	}

	amp := e.cfg.Amp
	clipped := clip(strmL, amp) + clip(strmR, amp)

	e.metrics.observeProcess(n, clipped, time.Since(began))
	e.Emit(event.KindProcess, e.tick)
}

// dropIdleListener schedules removal of a listener left without inputs
func (e *Engine) dropIdleListener(l graph.Node) {
	b := l.Core()
	if len(b.Inputs()) > 0 || b.Membership().RemovalPending() {
		return
	}
	b.Membership().MarkRemoval()
	e.nextTicks = append(e.nextTicks, func() {
		e.Deactivated()
		b.Emit(event.KindUnlisten, nil)
	})
}

// sweep removes entries flagged for removal from every set
func (e *Engine) sweep() {
	for _, set := range []graph.ActiveSet{graph.Timers, graph.Roots, graph.Listeners} {
		list := e.set(set)
		before := len(*list)
		*list = slices.DeleteFunc(*list, func(n graph.Node) bool {
			return n.Core().Membership().ConsumeRemoval()
		})
		if len(*list) != before {
			e.metrics.setActive(set.String(), len(*list))
		}
	}
}

func addAt(dst []float64, src graph.Cell) {
	for i := range min(len(dst), len(src)) {
		dst[i] += src[i]
	}
}

// clip applies gain and clamps every sample to [-1, 1], returning the clamped count
func clip(buf []float64, amp float64) int {
	clipped := 0
	for i, v := range buf {
		v *= amp
		switch {
		case v > 1:
			v = 1
			clipped++
		case v < -1:
			v = -1
			clipped++
		case math.IsNaN(v):
			v = 0
			clipped++
		}
		buf[i] = v
	}
	return clipped
}
