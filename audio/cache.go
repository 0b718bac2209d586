package audio

import (
	"fmt"
	"sync"

	"github.com/lixenwraith/tickgraph/graph"
)

// cacheKey identifies sample data by source and render rate
// Decoded files keep their own rate and use rate 0
type cacheKey struct {
	source string
	rate   int
}

// sampleCache stores rendered tones and decoded files, shared read-only between buffer nodes
type sampleCache struct {
	mu    sync.RWMutex
	store map[cacheKey]graph.Samples
}

func newSampleCache() *sampleCache {
	return &sampleCache{store: make(map[cacheKey]graph.Samples)}
}

var sampleStore = newSampleCache()

// get returns cached data or loads it on demand
func (c *sampleCache) get(key cacheKey, load func() (graph.Samples, error)) (graph.Samples, error) {
	c.mu.RLock()
	if smp, ok := c.store[key]; ok {
		c.mu.RUnlock()
		return smp, nil
	}
	c.mu.RUnlock()

	// Generate and cache
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if smp, ok := c.store[key]; ok {
		return smp, nil
	}

	smp, err := load()
	if err != nil {
		return graph.Samples{}, err
	}
	c.store[key] = smp
	return smp, nil
}

// ToneSamples renders the tone spec at rate, reusing earlier renders
func ToneSamples(spec string, rate int) (graph.Samples, error) {
	return sampleStore.get(cacheKey{source: "tone:" + spec, rate: rate}, func() (graph.Samples, error) {
		t, err := ParseTone(spec)
		if err != nil {
			return graph.Samples{}, err
		}
		return t.Render(rate), nil
	})
}

// FileSamples decodes the WAV file at path to mono, reusing earlier decodes
func FileSamples(path string) (graph.Samples, error) {
	return sampleStore.get(cacheKey{source: "file:" + path}, func() (graph.Samples, error) {
		clip, err := LoadWAV(path)
		if err != nil {
			return graph.Samples{}, err
		}
		return clip.Mono(), nil
	})
}

// RegisterNodes adds the "tone" and "wav" buffer constructors to f
//
//	f.Make("tone", "sine:A4:2s")
//	f.Make("wav", "kick.wav", map[string]any{"isLooped": true})
func RegisterNodes(f *graph.Factory) {
	f.Register("tone", func(s graph.Scheduler, args []any) (graph.Node, error) {
		spec, err := stringArg("tone", args)
		if err != nil {
			return nil, err
		}
		smp, err := ToneSamples(spec, s.SampleRate())
		if err != nil {
			return nil, err
		}
		return bufferWith(s, smp, args[1:])
	})
	f.Register("wav", func(s graph.Scheduler, args []any) (graph.Node, error) {
		path, err := stringArg("wav", args)
		if err != nil {
			return nil, err
		}
		smp, err := FileSamples(path)
		if err != nil {
			return nil, err
		}
		return bufferWith(s, smp, args[1:])
	})
	f.Alias("sample", "wav")
}

func stringArg(key string, args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s needs a source argument", graph.ErrBadOption, key)
	}
	v, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s source %v (%T)", graph.ErrBadOption, key, args[0], args[0])
	}
	return v, nil
}

// bufferWith creates a buffer over smp, a trailing record is applied as options
func bufferWith(s graph.Scheduler, smp graph.Samples, rest []any) (graph.Node, error) {
	buf := graph.NewBuffer(s)
	buf.SetBuffer(smp)
	for _, a := range rest {
		opts, ok := a.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected argument %v (%T)", graph.ErrBadOption, a, a)
		}
		if err := buf.Configure(opts); err != nil {
			return nil, err
		}
	}
	return buf, nil
}
