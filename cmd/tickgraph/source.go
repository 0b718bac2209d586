package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/tickgraph/audio"
	"github.com/lixenwraith/tickgraph/graph"
)

// sourceOptions describes the buffer node built from command line flags
type sourceOptions struct {
	file     string
	tone     string
	loop     bool
	reverse  bool
	begin    float64
	end      float64
	mul      float64
	position float64
}

func addSourceFlags(cmd *cobra.Command, o *sourceOptions) {
	f := cmd.Flags()
	f.StringVar(&o.tone, "tone", "", "Generate a tone instead of reading a file (wave:freq:duration, e.g. sine:440:2s or saw:C3:1s)")
	f.BoolVar(&o.loop, "loop", false, "Loop playback")
	f.BoolVar(&o.reverse, "reverse", false, "Play backwards")
	f.Float64Var(&o.begin, "begin", -1, "Slice start in ms (-1 for the beginning)")
	f.Float64Var(&o.end, "end", -1, "Slice end in ms (-1 for the end), end before begin reverses")
	f.Float64Var(&o.mul, "mul", 1, "Output gain of the buffer node")
	f.Float64Var(&o.position, "seek", 0, "Start position in ms")
}

// samples loads the configured file or renders the configured tone
func (o *sourceOptions) samples(rate int) (graph.Samples, error) {
	switch {
	case o.file != "" && o.tone != "":
		return graph.Samples{}, fmt.Errorf("give either a file or --tone, not both")
	case o.tone != "":
		return audio.ToneSamples(o.tone, rate)
	case o.file != "":
		smp, err := audio.FileSamples(o.file)
		if err != nil {
			return graph.Samples{}, fmt.Errorf("failed to load %s: %w", o.file, err)
		}
		return smp, nil
	default:
		return graph.Samples{}, fmt.Errorf("nothing to play: give a WAV file or --tone")
	}
}

// build creates the buffer node on s, sliced and configured per the flags
func (o *sourceOptions) build(s graph.Scheduler, smp graph.Samples) *graph.Buffer {
	buf := graph.NewBuffer(s)
	buf.SetBuffer(smp)
	if o.begin >= 0 || o.end >= 0 {
		buf = buf.Slice(o.begin, o.end)
	}

	opts := graph.BufferOptions{
		Looped: &o.loop,
		Mul:    &o.mul,
	}
	if o.reverse {
		rev := !buf.Reversed()
		opts.Reversed = &rev
	}
	if o.position > 0 {
		opts.CurrentTime = &o.position
	}
	buf.Apply(opts)
	return buf
}
