package audio

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/graph"
)

func TestSampleCacheLoadsOnce(t *testing.T) {
	c := newSampleCache()
	loads := 0
	load := func() (graph.Samples, error) {
		loads++
		return graph.Samples{Data: []float64{1, 2}, SampleRate: 8000}, nil
	}

	a, err := c.get(cacheKey{source: "x", rate: 8000}, load)
	require.NoError(t, err)
	b, err := c.get(cacheKey{source: "x", rate: 8000}, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, a, b)

	_, err = c.get(cacheKey{source: "x", rate: 16000}, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "rate is part of the key")

	failing := errors.New("load failed")
	_, err = c.get(cacheKey{source: "y"}, func() (graph.Samples, error) { return graph.Samples{}, failing })
	assert.ErrorIs(t, err, failing)
	_, err = c.get(cacheKey{source: "y"}, load)
	assert.NoError(t, err, "failures are not cached")
}

func TestToneSamplesShared(t *testing.T) {
	a, err := ToneSamples("sine:A4:100ms", 8000)
	require.NoError(t, err)
	b, err := ToneSamples("sine:A4:100ms", 8000)
	require.NoError(t, err)
	require.Len(t, a.Data, 800)
	assert.Same(t, &a.Data[0], &b.Data[0], "renders are shared")

	_, err = ToneSamples("organ", 8000)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRegisterNodes(t *testing.T) {
	eng := engine.NewTestEngine()
	f := eng.Factory()
	RegisterNodes(f)
	assert.Equal(t, []string{"buffer", "interval", "meter", "tone", "wav"}, f.Keys())

	n, err := f.Make("tone", "square:440:50ms", map[string]any{"isLooped": true})
	require.NoError(t, err)
	buf, ok := n.(*graph.Buffer)
	require.True(t, ok)
	assert.True(t, buf.Looped())
	assert.Equal(t, 8000, buf.SampleRate())
	assert.Len(t, buf.Buffer().Data, 400)

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, WriteWAV(path, engine.Recording{
		Left:       []float64{0.5, 0.5},
		Right:      []float64{0, 0},
		SampleRate: 8000,
	}))
	n, err = f.Make("sample", path)
	require.NoError(t, err)
	data := n.(*graph.Buffer).Buffer().Data
	require.Len(t, data, 2)
	assert.InDelta(t, 0.25, data[0], 1e-3)

	_, err = f.Make("tone")
	assert.ErrorIs(t, err, graph.ErrBadOption)
	_, err = f.Make("wav", 42)
	assert.ErrorIs(t, err, graph.ErrBadOption)
	_, err = f.Make("tone", "sine", "extra")
	assert.ErrorIs(t, err, graph.ErrBadOption)
}

func TestParseNote(t *testing.T) {
	tests := map[string]int{"A4": 69, "C4": 60, "C#3": 49, "Bb2": 46, "b4": 71, "C-1": 0, "G9": 127}
	for in, want := range tests {
		got, err := ParseNote(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}
	for _, in := range []string{"", "H2", "A", "C#", "G#9", "Cb-1"} {
		_, err := ParseNote(in)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, in)
	}

	assert.InDelta(t, 440.0, NoteFreq(69), 1e-9)
	assert.InDelta(t, 261.6256, NoteFreq(60), 1e-4)
	assert.Zero(t, NoteFreq(128))

	f, err := ParseFrequency("A5")
	require.NoError(t, err)
	assert.InDelta(t, 880.0, f, 1e-9)
	f, err = ParseFrequency("123.5")
	require.NoError(t, err)
	assert.Equal(t, 123.5, f)
	_, err = ParseFrequency("-3")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
