package graph

import (
	"math"

	"github.com/lixenwraith/tickgraph/event"
)

// DefaultBufferSampleRate is assumed for sample data supplied without a rate
const DefaultBufferSampleRate = 44100

// BufferOptions is the typed configuration of a Buffer
// nil fields are left unchanged
type BufferOptions struct {
	Buffer      *Samples
	Looped      *bool
	Reversed    *bool
	CurrentTime *float64
	Mul         *float64
	Add         *float64
}

// Buffer plays back sample data through a phase accumulator
// The phase increment is the ratio of the data rate to the engine rate, negative when reversed
type Buffer struct {
	*Base

	data       []float64
	sampleRate int

	phase     float64
	phaseIncr float64

	looped   bool
	reversed bool
	ended    bool
}

// NewBuffer creates an empty audio-rate playback node
func NewBuffer(s Scheduler) *Buffer {
	n := &Buffer{sampleRate: DefaultBufferSampleRate}
	n.Base = NewBase(s, n, "buffer")
	n.FixAR()
	return n
}

// SetBuffer replaces the sample data
// A zero SampleRate keeps the current data rate
// A reversed node still at phase 0 is positioned at the new tail
func (n *Buffer) SetBuffer(smp Samples) {
	if smp.SampleRate > 0 {
		n.sampleRate = smp.SampleRate
	}
	n.data = smp.Data
	n.phaseIncr = float64(n.sampleRate) / float64(n.sched.SampleRate())
	if n.reversed {
		n.phaseIncr = -n.phaseIncr
		if n.phase == 0 {
			n.phase = n.tail()
		}
	}
}

// Buffer returns the sample data and its rate
func (n *Buffer) Buffer() Samples {
	return Samples{Data: n.data, SampleRate: n.sampleRate}
}

// SampleRate returns the data sample rate
func (n *Buffer) SampleRate() int {
	return n.sampleRate
}

// Duration returns the data length in milliseconds
func (n *Buffer) Duration() float64 {
	return n.Buffer().Duration()
}

// Looped reports whether playback wraps at the ends
func (n *Buffer) Looped() bool {
	return n.looped
}

// SetLooped enables or disables wrapping
func (n *Buffer) SetLooped(v bool) {
	n.looped = v
}

// Reversed reports backward playback
func (n *Buffer) Reversed() bool {
	return n.reversed
}

// SetReversed sets the playback direction
// Reversing at phase 0 moves the head to the tail so playback does not end at once
func (n *Buffer) SetReversed(v bool) {
	n.reversed = v
	if v {
		if n.phaseIncr > 0 {
			n.phaseIncr = -n.phaseIncr
		}
		if n.phase == 0 {
			n.phase = n.tail()
		}
		return
	}
	if n.phaseIncr < 0 {
		n.phaseIncr = -n.phaseIncr
	}
}

// tail is the first phase of reverse playback
func (n *Buffer) tail() float64 {
	if len(n.data) == 0 {
		return 0
	}
	return float64(len(n.data)) + n.phaseIncr
}

// Ended reports whether non-looping playback ran off either end
func (n *Buffer) Ended() bool {
	return n.ended
}

// Phase returns the playback position in samples
func (n *Buffer) Phase() float64 {
	return n.phase
}

// CurrentTime returns the playback position in milliseconds of data time
func (n *Buffer) CurrentTime() float64 {
	return n.phase * 1000 / float64(n.sampleRate)
}

// SetCurrentTime seeks to ms, values outside [0, Duration] are ignored
func (n *Buffer) SetCurrentTime(ms float64) {
	if ms < 0 || ms > n.Duration() {
		return
	}
	n.phase = ms / 1000 * float64(n.sampleRate)
}

// Bang rewinds and rearms playback
func (n *Buffer) Bang() {
	n.phase = 0
	if n.reversed {
		n.phase = n.tail()
	}
	n.ended = false
	n.Emit(event.KindBang, nil)
}

// Slice returns a new node over the range [beginMs, endMs) of the same data
// A negative bound means the buffer edge
// beginMs > endMs swaps the range and flips the direction
func (n *Buffer) Slice(beginMs, endMs float64) *Buffer {
	begin := 0
	if beginMs >= 0 {
		begin = int(beginMs * 0.001 * float64(n.sampleRate))
	}
	end := len(n.data)
	if endMs >= 0 {
		end = int(endMs * 0.001 * float64(n.sampleRate))
	}

	reversed := n.reversed
	if begin > end {
		begin, end = end, begin
		reversed = !reversed
	}
	begin = min(max(begin, 0), len(n.data))
	end = min(max(end, begin), len(n.data))

	s := NewBuffer(n.sched)
	s.SetBuffer(Samples{Data: n.data[begin:end:end], SampleRate: n.sampleRate})
	s.SetLooped(n.looped)
	s.SetReversed(reversed)
	s.mul, s.add = n.mul, n.add
	return s
}

// Evaluate reads one cell of samples and advances the phase
// Running off an end either wraps (looped) or ends playback and clears the cell at the next boundary
func (n *Buffer) Evaluate(tick uint64) Cell {
	if !n.Advance(tick) || n.ended || len(n.data) == 0 {
		return n.cell
	}

	data := n.data
	size := float64(len(data))
	phase, incr := n.phase, n.phaseIncr
	mul, add := n.mul, n.add
	for i := range n.cell {
		var x float64
		if idx := math.Floor(phase); idx >= 0 && idx < size {
			x = data[int(idx)]
		}
		n.cell[i] = x*mul + add
		phase += incr
	}

	switch {
	case phase >= size:
		if n.looped {
			phase = 0
			n.Emit(event.KindLooped, nil)
		} else {
			n.end()
		}
	case phase < 0:
		if n.looped {
			phase = size + incr
			n.Emit(event.KindLooped, nil)
		} else {
			n.end()
		}
	}
	n.phase = phase
	return n.cell
}

func (n *Buffer) end() {
	n.ended = true
	n.Emit(event.KindEnded, nil)
	n.sched.NextTick(func() {
		if n.ended {
			n.cell.Zero()
		}
	})
}

// Apply applies typed options in a fixed order: data, loop, direction, position, scaling
func (n *Buffer) Apply(opts BufferOptions) {
	if opts.Buffer != nil {
		n.SetBuffer(*opts.Buffer)
	}
	if opts.Looped != nil {
		n.SetLooped(*opts.Looped)
	}
	if opts.Reversed != nil {
		n.SetReversed(*opts.Reversed)
	}
	if opts.CurrentTime != nil {
		n.SetCurrentTime(*opts.CurrentTime)
	}
	if opts.Mul != nil {
		n.SetMul(*opts.Mul)
	}
	if opts.Add != nil {
		n.SetAdd(*opts.Add)
	}
}

// Configure applies a record of options
// Recognized keys: buffer, isLooped, isReversed, currentTime, mul, add
func (n *Buffer) Configure(opts map[string]any) error {
	var bo BufferOptions
	for k, v := range opts {
		switch k {
		case "buffer":
			smp, ok := toSamples(v)
			if !ok {
				return badOption(n.kind, k, v)
			}
			bo.Buffer = &smp
		case "isLooped":
			b, ok := v.(bool)
			if !ok {
				return badOption(n.kind, k, v)
			}
			bo.Looped = &b
		case "isReversed":
			b, ok := v.(bool)
			if !ok {
				return badOption(n.kind, k, v)
			}
			bo.Reversed = &b
		case "currentTime", "mul", "add":
			f, ok := toFloat(v)
			if !ok {
				return badOption(n.kind, k, v)
			}
			switch k {
			case "currentTime":
				bo.CurrentTime = &f
			case "mul":
				bo.Mul = &f
			default:
				bo.Add = &f
			}
		default:
			return unknownOptions(n.kind, map[string]any{k: v})
		}
	}
	n.Apply(bo)
	return nil
}

func toSamples(v any) (Samples, bool) {
	switch x := v.(type) {
	case Samples:
		return x, true
	case *Samples:
		if x == nil {
			return Samples{}, false
		}
		return *x, true
	case []float64:
		return Samples{Data: x}, true
	case []float32:
		data := make([]float64, len(x))
		for i, f := range x {
			data[i] = float64(f)
		}
		return Samples{Data: data}, true
	default:
		return Samples{}, false
	}
}
