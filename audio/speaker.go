package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/tickgraph/constant"
	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/logging"
)

var _ engine.Device = (*SpeakerDevice)(nil)

// SpeakerDevice plays through the system speaker via beep
//
// The speaker is initialized once with a single long-lived streamer. Opening a stream
// only swaps the pump that streamer reads from, so Open and Close never contend for
// the speaker lock while the engine lock is held.
type SpeakerDevice struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	buffer      time.Duration
	initialized bool
	playing     bool
	log         zerolog.Logger

	current atomic.Pointer[speakerStream]
	bufL    []float64
	bufR    []float64
}

// NewSpeakerDevice creates a speaker device at rate, 0 selects the engine default
func NewSpeakerDevice(rate int, buffer time.Duration) *SpeakerDevice {
	if rate <= 0 {
		rate = constant.DefaultSampleRate
	}
	if buffer <= 0 {
		buffer = constant.DefaultDeviceBuffer
	}
	return &SpeakerDevice{
		rate:   beep.SampleRate(rate),
		buffer: buffer,
		log:    logging.WithComponent("audio.speaker"),
	}
}

// MaxSampleRate returns the speaker rate, the engine never runs faster than the device
func (d *SpeakerDevice) MaxSampleRate() int {
	return int(d.rate)
}

// Initialize sets up the audio system
func (d *SpeakerDevice) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.playing {
		return nil
	}

	// beep allows a single speaker.Init per process
	if !d.initialized {
		err := speaker.Init(d.rate, d.rate.N(d.buffer))
		if err != nil {
			return err
		}
		d.initialized = true
		d.log.Info().Int("sample_rate", int(d.rate)).Dur("buffer", d.buffer).Msg("speaker initialized")
	}

	speaker.Play(beep.StreamerFunc(d.stream))
	d.playing = true
	return nil
}

// Open routes src to the speaker, resampling to the speaker rate
func (d *SpeakerDevice) Open(src engine.Source, cfg engine.StreamConfig) (engine.Stream, error) {
	if err := d.Initialize(); err != nil {
		return nil, err
	}
	s := &speakerStream{device: d, pump: NewPump(src, int(d.rate))}
	d.current.Store(s)
	return s, nil
}

// Cleanup detaches the active stream and silences the speaker
func (d *SpeakerDevice) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.playing {
		return
	}
	d.current.Store(nil)
	speaker.Clear()
	d.playing = false
}

// stream runs on the speaker goroutine under the speaker lock
func (d *SpeakerDevice) stream(samples [][2]float64) (int, bool) {
	s := d.current.Load()
	if s == nil || s.closed.Load() {
		clear(samples)
		return len(samples), true
	}

	n := len(samples)
	if cap(d.bufL) < n {
		d.bufL = make([]float64, n)
		d.bufR = make([]float64, n)
	}
	l, r := d.bufL[:n], d.bufR[:n]
	s.pump.Fill(l, r)
	for i := range samples {
		samples[i][0] = l[i]
		samples[i][1] = r[i]
	}
	return n, true
}

// speakerStream is the engine's handle on the shared speaker streamer
type speakerStream struct {
	device *SpeakerDevice
	pump   *Pump
	closed atomic.Bool
}

// Close detaches the stream, the speaker keeps running silent
func (s *speakerStream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.device.current.CompareAndSwap(s, nil)
	}
	return nil
}

// Close stops playback and releases the speaker
func (d *SpeakerDevice) Close() {
	d.Cleanup()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		speaker.Close()
		d.initialized = false
	}
}
