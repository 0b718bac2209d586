package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/tickgraph/audio"
	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/event"
	"github.com/lixenwraith/tickgraph/graph"
	"github.com/lixenwraith/tickgraph/logging"
)

var renderOpts sourceOptions

var renderCmd = &cobra.Command{
	Use:   "render [FILE]",
	Short: "Render a buffer offline into a WAV file",
	Long: `Record the buffer node into memory without an output device and write the
result as 16-bit stereo WAV. Recording stops when playback ends or when the
--limit duration was rendered; looped playback requires a limit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			renderOpts.file = args[0]
		}
		out, _ := cmd.Flags().GetString("output")
		limit, _ := cmd.Flags().GetDuration("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if limit > 0 {
			cfg.Engine.RecordLimit = limit
		}
		if renderOpts.loop && cfg.Engine.RecordLimit == 0 {
			return fmt.Errorf("looped render never ends, set --limit")
		}

		log := logging.WithComponent("render")
		eng := engine.New(cfg.Engine, engine.WithMetrics(startMetrics(cfg)))
		audio.RegisterNodes(eng.Factory())

		smp, err := renderOpts.samples(eng.SampleRate())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		began := time.Now()
		result, err := eng.Record(ctx, func(m *graph.RootMixer) {
			buf := renderOpts.build(eng, smp)
			buf.On(event.KindEnded, func(event.Event) {
				m.Done()
			})
			m.Append(buf)
		})
		if err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		rec, err := result.Wait(ctx)
		if err != nil {
			return fmt.Errorf("recording failed: %w", err)
		}

		if err := audio.WriteWAV(out, rec); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}

		log.Info().
			Str("output", out).
			Dur("audio", rec.Duration()).
			Dur("elapsed", time.Since(began)).
			Int("sample_rate", rec.SampleRate).
			Msg("render complete")
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%s at %d Hz)\n", out, rec.Duration().Round(time.Millisecond), rec.SampleRate)
		return nil
	},
}

func init() {
	addSourceFlags(renderCmd, &renderOpts)
	renderCmd.Flags().StringP("output", "o", "out.wav", "Output WAV file")
	renderCmd.Flags().Duration("limit", 0, "Stop after this much audio (0 uses the configured record limit)")
}
