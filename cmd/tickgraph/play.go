package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lixenwraith/tickgraph/audio"
	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/event"
	"github.com/lixenwraith/tickgraph/graph"
	"github.com/lixenwraith/tickgraph/logging"
)

var playOpts sourceOptions

var playCmd = &cobra.Command{
	Use:   "play [FILE]",
	Short: "Play a WAV file or tone through the output device",
	Long: `Play a buffer node through the configured output device.

On a terminal a level meter is drawn and the keys control playback:
  space  pause / resume      b  restart (bang)
  l      toggle loop         r  toggle reverse
  + / -  engine gain         q  quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			playOpts.file = args[0]
		}
		headless, _ := cmd.Flags().GetBool("headless")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := logging.WithComponent("play")

		dev, err := cfg.NewDevice()
		if err != nil {
			return err
		}
		if sd, ok := dev.(*audio.SpeakerDevice); ok {
			defer sd.Close()
		}

		eng := engine.New(cfg.Engine, engine.WithDevice(dev), engine.WithMetrics(startMetrics(cfg)))
		audio.RegisterNodes(eng.Factory())

		smp, err := playOpts.samples(eng.SampleRate())
		if err != nil {
			return err
		}

		ended := make(chan struct{}, 1)
		p := &player{eng: eng}

		eng.Lock()
		p.buf = playOpts.build(eng, smp)
		p.meter = graph.NewMeter(eng)
		p.buf.On(event.KindEnded, func(event.Event) {
			select {
			case ended <- struct{}{}:
			default:
			}
		})
		p.buf.Play()
		p.meter.Listen(p.buf)
		eng.Unlock()

		log.Info().
			Int("sample_rate", eng.SampleRate()).
			Int("cell_size", eng.CellSize()).
			Float64("duration_ms", p.buf.Duration()).
			Msg("playback started")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if headless || !term.IsTerminal(int(os.Stdin.Fd())) {
			select {
			case <-ctx.Done():
			case <-ended:
			}
		} else if err := runUI(ctx, p, ended); err != nil {
			return err
		}

		eng.Reset()
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Playback stopped")
		return nil
	},
}

func init() {
	addSourceFlags(playCmd, &playOpts)
	playCmd.Flags().Bool("headless", false, "Play without the terminal meter, exit when playback ends")
}

// player holds the nodes the UI controls
type player struct {
	eng    *engine.Engine
	buf    *graph.Buffer
	meter  *graph.Meter
	paused bool
}

// togglePause detaches or reattaches the buffer and its meter
// The meter pulls the buffer, so both leave the engine while paused
func (p *player) togglePause() {
	p.eng.Lock()
	defer p.eng.Unlock()
	if p.paused {
		p.resume()
	} else {
		p.buf.Pause()
		p.meter.Unlisten()
		p.paused = true
	}
}

func (p *player) resume() {
	p.buf.Play()
	p.meter.Listen(p.buf)
	p.paused = false
}

func (p *player) bang() {
	p.eng.Lock()
	defer p.eng.Unlock()
	p.buf.Bang()
	if p.paused {
		p.resume()
	}
}

func (p *player) toggleLoop() bool {
	p.eng.Lock()
	defer p.eng.Unlock()
	p.buf.SetLooped(!p.buf.Looped())
	return p.buf.Looped()
}

func (p *player) toggleReverse() bool {
	p.eng.Lock()
	defer p.eng.Unlock()
	p.buf.SetReversed(!p.buf.Reversed())
	return p.buf.Reversed()
}

func (p *player) changeAmp(delta float64) float64 {
	p.eng.Lock()
	defer p.eng.Unlock()
	p.eng.SetAmp(min(max(p.eng.Amp()+delta, 0), 1))
	return p.eng.Amp()
}

// snapshot reads the state drawn by the UI
func (p *player) snapshot() playerState {
	p.eng.Lock()
	defer p.eng.Unlock()
	return playerState{
		state:    p.eng.State(),
		position: p.buf.CurrentTime(),
		duration: p.buf.Duration(),
		looped:   p.buf.Looped(),
		reversed: p.buf.Reversed(),
		ended:    p.buf.Ended(),
		paused:   p.paused,
		amp:      p.eng.Amp(),
		peak:     p.meter.Peak(),
		rms:      p.meter.RMS(),
		tick:     p.eng.Tick(),
	}
}

type playerState struct {
	state    engine.State
	position float64
	duration float64
	looped   bool
	reversed bool
	ended    bool
	paused   bool
	amp      float64
	peak     float64
	rms      float64
	tick     uint64
}
