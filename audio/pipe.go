package audio

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tickgraph/constant"
	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/logging"
)

var (
	_ engine.Device      = (*PipeDevice)(nil)
	_ engine.Device      = (*WriterDevice)(nil)
	_ engine.RateLimiter = (*PipeDevice)(nil)
)

// PipeDevice streams raw PCM into a detected system player process
type PipeDevice struct {
	rate   int
	buffer time.Duration
	detect func(rate, channels int) (*BackendConfig, error)
	log    zerolog.Logger
}

// NewPipeDevice creates a pipe device at rate, 0 follows the engine rate
func NewPipeDevice(rate int, buffer time.Duration) *PipeDevice {
	if buffer <= 0 {
		buffer = constant.DefaultDeviceBuffer
	}
	return &PipeDevice{
		rate:   rate,
		buffer: buffer,
		detect: DetectBackend,
		log:    logging.WithComponent("audio.pipe"),
	}
}

// MaxSampleRate returns the highest rate the players are driven at
func (d *PipeDevice) MaxSampleRate() int {
	return constant.MaxDeviceSampleRate
}

// Open starts the player and begins streaming
func (d *PipeDevice) Open(src engine.Source, cfg engine.StreamConfig) (engine.Stream, error) {
	rate := d.rate
	if rate <= 0 {
		rate = cfg.SampleRate
	}

	backend, err := d.detect(rate, cfg.Channels)
	if err != nil {
		return nil, err
	}

	var (
		writer  io.Writer
		release func()
	)
	if backend.Type == BackendOSS {
		// Direct file write for OSS
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		writer = f
		release = func() { f.Close() }
	} else {
		// Exec-based backend
		cmd := exec.Command(backend.Path, backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		writer = stdin
		release = func() {
			stdin.Close()
			if cmd.Process != nil {
				cmd.Process.Kill()
			}
			cmd.Wait()
		}
	}

	s := newPCMStream(writer, src, rate, cfg.Channels, d.buffer, d.log)
	s.onStop = release
	s.Start()
	d.log.Info().Str("backend", backend.Name).Int("sample_rate", rate).Msg("pipe stream opened")
	return s, nil
}

// WriterDevice paces PCM into an arbitrary writer
// With io.Discard it is a headless clock for timers and listeners
type WriterDevice struct {
	out    io.Writer
	rate   int
	buffer time.Duration
	log    zerolog.Logger
}

// NewWriterDevice creates a device writing s16le frames to out
func NewWriterDevice(out io.Writer, rate int, buffer time.Duration) *WriterDevice {
	if out == nil {
		out = io.Discard
	}
	if buffer <= 0 {
		buffer = constant.DefaultDeviceBuffer
	}
	return &WriterDevice{
		out:    out,
		rate:   rate,
		buffer: buffer,
		log:    logging.WithComponent("audio.writer"),
	}
}

// NewNullDevice creates a silent device that still drives the engine in real time
func NewNullDevice() *WriterDevice {
	return NewWriterDevice(io.Discard, 0, 0)
}

// Open begins streaming into the writer
func (d *WriterDevice) Open(src engine.Source, cfg engine.StreamConfig) (engine.Stream, error) {
	rate := d.rate
	if rate <= 0 {
		rate = cfg.SampleRate
	}
	s := newPCMStream(d.out, src, rate, cfg.Channels, d.buffer, d.log)
	s.Start()
	return s, nil
}
