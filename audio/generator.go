package audio

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/lixenwraith/tickgraph/graph"
)

// Waveform selects the oscillator shape
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

var waveNames = map[string]Waveform{
	"sine":   WaveSine,
	"square": WaveSquare,
	"saw":    WaveSaw,
	"noise":  WaveNoise,
}

// Tone describes a generated test signal
type Tone struct {
	Wave     Waveform
	Freq     float64
	Duration time.Duration
	Attack   time.Duration
	Release  time.Duration
}

// ParseTone reads "wave:freq:duration", e.g. "sine:440:1s" or "square:C4:250ms"
// Frequency and duration are optional and default to 440 Hz and one second
func ParseTone(s string) (Tone, error) {
	t := Tone{
		Wave:     WaveSine,
		Freq:     440,
		Duration: time.Second,
		Attack:   5 * time.Millisecond,
		Release:  50 * time.Millisecond,
	}
	parts := strings.Split(s, ":")
	w, ok := waveNames[strings.ToLower(parts[0])]
	if !ok {
		return t, fmt.Errorf("%w: waveform %q", ErrUnsupportedFormat, parts[0])
	}
	t.Wave = w
	if len(parts) > 1 && parts[1] != "" {
		f, err := ParseFrequency(parts[1])
		if err != nil {
			return t, err
		}
		t.Freq = f
	}
	if len(parts) > 2 && parts[2] != "" {
		d, err := time.ParseDuration(parts[2])
		if err != nil || d <= 0 {
			return t, fmt.Errorf("%w: duration %q", ErrUnsupportedFormat, parts[2])
		}
		t.Duration = d
	}
	return t, nil
}

// Render generates the tone at rate with its envelope applied
func (t Tone) Render(rate int) graph.Samples {
	samples := int(t.Duration.Seconds() * float64(rate))
	buf := oscillator(t.Wave, t.Freq, samples, rate)
	applyEnvelope(buf, t.Attack.Seconds(), t.Release.Seconds(), rate)
	return graph.Samples{Data: buf, SampleRate: rate}
}

// oscillator generates raw waveform samples at unity gain
func oscillator(wave Waveform, freq float64, samples, rate int) []float64 {
	buf := make([]float64, samples)
	phase := 0.0
	phaseInc := freq / float64(rate)

	for i := 0; i < samples; i++ {
		switch wave {
		case WaveSine:
			buf[i] = math.Sin(2 * math.Pi * phase)
		case WaveSquare:
			if phase < 0.5 {
				buf[i] = 1.0
			} else {
				buf[i] = -1.0
			}
		case WaveSaw:
			buf[i] = 2.0 * (phase - 0.5)
		case WaveNoise:
			buf[i] = rand.Float64()*2 - 1
		}

		phase += phaseInc
		if phase >= 1.0 {
			phase -= 1.0
		}
	}
	return buf
}

// applyEnvelope applies attack/release envelope in place
func applyEnvelope(buf []float64, attackSec, releaseSec float64, rate int) {
	total := len(buf)
	attackSamples := int(attackSec * float64(rate))
	releaseSamples := int(releaseSec * float64(rate))

	releaseStart := total - releaseSamples
	if releaseStart < attackSamples {
		releaseStart = attackSamples
	}

	for i := 0; i < total; i++ {
		vol := 1.0
		if i < attackSamples && attackSamples > 0 {
			vol = float64(i) / float64(attackSamples)
		} else if i >= releaseStart && releaseSamples > 0 {
			vol = float64(total-i) / float64(releaseSamples)
		}
		buf[i] *= vol
	}
}
