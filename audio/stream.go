package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tickgraph/engine"
)

// pcmStream paces engine output onto a writer as interleaved s16le frames
type pcmStream struct {
	output   io.Writer
	pump     *Pump
	channels int
	period   time.Duration
	frames   int
	log      zerolog.Logger

	stopChan chan struct{}
	stopped  atomic.Bool
	done     chan struct{}

	// onStop releases the writer, runs on the loop goroutine
	onStop func()

	// Stats
	written atomic.Uint64

	// Error signaling
	errChan chan error
}

func newPCMStream(out io.Writer, src engine.Source, rate, channels int, period time.Duration, log zerolog.Logger) *pcmStream {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	frames := max(int(float64(rate)*period.Seconds()), 1)
	return &pcmStream{
		output:   out,
		pump:     NewPump(src, rate),
		channels: max(channels, 1),
		period:   period,
		frames:   frames,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		errChan:  make(chan error, 1),
	}
}

// Start begins the pacing loop
func (s *pcmStream) Start() {
	go s.loop()
}

// Close signals the loop to halt without waiting for it
func (s *pcmStream) Close() error {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
	}
	return nil
}

// Done is closed once the loop exited and the writer was released
func (s *pcmStream) Done() <-chan struct{} {
	return s.done
}

// Errors returns channel for write errors
func (s *pcmStream) Errors() <-chan error {
	return s.errChan
}

// Written returns the number of frames delivered
func (s *pcmStream) Written() uint64 {
	return s.written.Load()
}

// loop is the delivery goroutine
func (s *pcmStream) loop() {
	defer close(s.done)
	defer func() {
		if s.onStop != nil {
			s.onStop()
		}
	}()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	bufL := make([]float64, s.frames)
	var bufR []float64
	if s.channels > 1 {
		bufR = make([]float64, s.frames)
	}
	outBytes := make([]byte, s.frames*s.channels*2)

	for {
		select {
		case <-s.stopChan:
			return

		case <-ticker.C:
			s.pump.Fill(bufL, bufR)
			floatToBytes(bufL, bufR, s.channels, outBytes)

			if _, err := s.output.Write(outBytes); err != nil {
				s.log.Error().Err(err).Msg("audio write failed")
				select {
				case s.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
			s.written.Add(uint64(s.frames))
		}
	}
}

// floatToBytes converts left/right samples to interleaved int16 LE frames
// right is nil for mono; channels beyond two repeat the right side
func floatToBytes(left, right []float64, channels int, out []byte) {
	idx := 0
	for i, l := range left {
		r := l
		if right != nil {
			r = right[i]
		}
		for ch := range channels {
			v := l
			if ch > 0 {
				v = r
			}
			// Hard clip
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}
			binary.LittleEndian.PutUint16(out[idx:], uint16(int16(v*32767)))
			idx += 2
		}
	}
}
