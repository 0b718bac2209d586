package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/graph"
)

// Clip is decoded stereo sample data
// Mono files carry the same data on both sides
type Clip struct {
	Left  graph.Samples
	Right graph.Samples
}

// Mono returns the average of both sides
func (c Clip) Mono() graph.Samples {
	data := make([]float64, len(c.Left.Data))
	for i := range data {
		data[i] = (c.Left.Data[i] + c.Right.Data[i]) * 0.5
	}
	return graph.Samples{Data: data, SampleRate: c.Left.SampleRate}
}

// Duration returns the clip length in milliseconds
func (c Clip) Duration() float64 {
	return c.Left.Duration()
}

// DecodeWAV reads a whole WAV stream into memory
func DecodeWAV(r io.Reader) (Clip, error) {
	s, format, err := wav.Decode(r)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer s.Close()

	rate := int(format.SampleRate)
	var left, right []float64
	if n := s.Len(); n > 0 {
		left = make([]float64, 0, n)
		right = make([]float64, 0, n)
	}

	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			left = append(left, smp[0])
			right = append(right, smp[1])
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}

	return Clip{
		Left:  graph.Samples{Data: left, SampleRate: rate},
		Right: graph.Samples{Data: right, SampleRate: rate},
	}, nil
}

// LoadWAV decodes the WAV file at path
func LoadWAV(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()
	return DecodeWAV(f)
}

// EncodeWAV writes rec as 16-bit stereo PCM
func EncodeWAV(w io.WriteSeeker, rec engine.Recording) error {
	if len(rec.Left) == 0 {
		return ErrEmptyRecording
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(rec.SampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	return wav.Encode(w, recordingStreamer(rec), format)
}

// WriteWAV writes rec to a new file at path
func WriteWAV(path string, rec engine.Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func recordingStreamer(rec engine.Recording) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(rec.Left) {
			return 0, false
		}
		n := min(len(samples), len(rec.Left)-pos)
		for i := range n {
			samples[i][0] = rec.Left[pos+i]
			samples[i][1] = rec.Right[pos+i]
		}
		pos += n
		return n, true
	})
}
