package audio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoteFrequencies contains precomputed frequencies for MIDI notes 0-127
// A4 (note 69) = 440Hz, equal temperament
var NoteFrequencies [128]float64

func init() {
	for i := range NoteFrequencies {
		NoteFrequencies[i] = 440.0 * math.Pow(2, (float64(i)-69.0)/12.0)
	}
}

// NoteFreq returns frequency in Hz for MIDI note number
func NoteFreq(midi int) float64 {
	if midi < 0 || midi >= 128 {
		return 0
	}
	return NoteFrequencies[midi]
}

var noteOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote converts scientific pitch notation to a MIDI note, e.g. "A4" = 69, "C#3" = 49
func ParseNote(s string) (int, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: note %q", ErrUnsupportedFormat, s)
	}
	base, ok := noteOffsets[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: note %q", ErrUnsupportedFormat, s)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: note %q", ErrUnsupportedFormat, s)
	}
	midi := (octave+1)*12 + base
	if midi < 0 || midi >= 128 {
		return 0, fmt.Errorf("%w: note %q out of range", ErrUnsupportedFormat, s)
	}
	return midi, nil
}

// ParseFrequency accepts Hz ("440") or a note name ("A4")
func ParseFrequency(s string) (float64, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: frequency %q", ErrUnsupportedFormat, s)
		}
		return f, nil
	}
	midi, err := ParseNote(s)
	if err != nil {
		return 0, fmt.Errorf("%w: frequency %q", ErrUnsupportedFormat, s)
	}
	return NoteFreq(midi), nil
}
