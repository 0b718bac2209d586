package audio

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/tickgraph/engine"
)

// TestWAVRoundTrip verifies a recording survives encode and decode within 16-bit precision
func TestWAVRoundTrip(t *testing.T) {
	rec := engine.Recording{
		Left:       []float64{0, 0.5, -0.5, 0.25, 1},
		Right:      []float64{0, -0.5, 0.5, -0.25, -1},
		SampleRate: 22050,
	}
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := WriteWAV(path, rec); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	clip, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}

	if clip.Left.SampleRate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", clip.Left.SampleRate)
	}
	if len(clip.Left.Data) != len(rec.Left) || len(clip.Right.Data) != len(rec.Right) {
		t.Fatalf("Expected %d frames, got %d/%d", len(rec.Left), len(clip.Left.Data), len(clip.Right.Data))
	}

	const tolerance = 1.0 / 16384
	for i := range rec.Left {
		if d := clip.Left.Data[i] - rec.Left[i]; d > tolerance || d < -tolerance {
			t.Errorf("left[%d]: want %f, got %f", i, rec.Left[i], clip.Left.Data[i])
		}
		if d := clip.Right.Data[i] - rec.Right[i]; d > tolerance || d < -tolerance {
			t.Errorf("right[%d]: want %f, got %f", i, rec.Right[i], clip.Right.Data[i])
		}
	}

	mono := clip.Mono()
	for i, v := range mono.Data {
		if v > tolerance || v < -tolerance {
			t.Errorf("mono[%d]: expected opposite sides to cancel, got %f", i, v)
		}
	}
}

func TestEncodeEmptyRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	err := WriteWAV(path, engine.Recording{SampleRate: 8000})
	if !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("Expected ErrEmptyRecording, got %v", err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not a wav file")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}
