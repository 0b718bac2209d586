//go:build portaudio

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	pa "github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/logging"
)

// PortAudioAvailable reports whether the binary was built with portaudio support
const PortAudioAvailable = true

// PortAudioDevice plays through the default portaudio output
type PortAudioDevice struct {
	mu          sync.Mutex
	frames      int
	initialized bool
	log         zerolog.Logger
}

// NewPortAudioDevice creates a device delivering frames per callback, 0 follows the engine block
func NewPortAudioDevice(frames int) (engine.Device, error) {
	return &PortAudioDevice{
		frames: frames,
		log:    logging.WithComponent("audio.portaudio"),
	}, nil
}

func (d *PortAudioDevice) initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	d.initialized = true
	return nil
}

// Open starts a callback stream on the default output device
func (d *PortAudioDevice) Open(src engine.Source, cfg engine.StreamConfig) (engine.Stream, error) {
	if err := d.initialize(); err != nil {
		return nil, err
	}
	dev, err := pa.DefaultOutputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	rate := int(dev.DefaultSampleRate)
	if rate <= 0 {
		rate = cfg.SampleRate
	}
	channels := min(max(cfg.Channels, 1), 2, max(dev.MaxOutputChannels, 1))
	frames := d.frames
	if frames <= 0 {
		frames = cfg.BlockSize
	}

	s := &paStream{pump: NewPump(src, rate), log: d.log}
	stream, err := pa.OpenDefaultStream(0, channels, float64(rate), frames, s.callback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	s.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	d.log.Info().Str("device", dev.Name).Int("sample_rate", rate).Int("channels", channels).Msg("portaudio stream opened")
	return s, nil
}

// Terminate releases portaudio
func (d *PortAudioDevice) Terminate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	d.initialized = false
	return pa.Terminate()
}

type paStream struct {
	stream *pa.Stream
	pump   *Pump
	closed atomic.Bool
	log    zerolog.Logger

	bufL []float64
	bufR []float64
}

// callback runs on the portaudio thread
func (s *paStream) callback(out [][]float32) {
	if s.closed.Load() || len(out) == 0 {
		for _, ch := range out {
			clear(ch)
		}
		return
	}

	n := len(out[0])
	if cap(s.bufL) < n {
		s.bufL = make([]float64, n)
		s.bufR = make([]float64, n)
	}
	l, r := s.bufL[:n], s.bufR[:n]
	if len(out) == 1 {
		s.pump.Fill(l, nil)
		for i := range n {
			out[0][i] = float32(l[i])
		}
		return
	}
	s.pump.Fill(l, r)
	for i := range n {
		out[0][i] = float32(l[i])
		out[1][i] = float32(r[i])
	}
}

// Close stops the stream off the callback thread
func (s *paStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	go func() {
		if err := s.stream.Stop(); err != nil {
			s.log.Warn().Err(err).Msg("portaudio stop failed")
		}
		if err := s.stream.Close(); err != nil {
			s.log.Warn().Err(err).Msg("portaudio close failed")
		}
	}()
	return nil
}
