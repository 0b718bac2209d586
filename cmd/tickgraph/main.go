package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/tickgraph/audio"
	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/logging"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tickgraph",
	Short: "tickgraph - block-based audio graph engine",
	Long: `tickgraph evaluates graphs of signal nodes one block per tick and mixes
the playing roots into an output device or an in-memory recording.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"tickgraph version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "tickgraph.yaml", "Configuration file (missing file uses defaults)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON")
	rootCmd.PersistentFlags().String("device", "", "Output device override (speaker, pipe, portaudio, null)")
	rootCmd.PersistentFlags().Int("sample-rate", 0, "Engine sample rate override")
	rootCmd.PersistentFlags().Int("cell-size", 0, "Engine cell size override")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve prometheus metrics on this address")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(nodesCmd)
}

// loadConfig reads the config file, applies flag overrides and initializes logging
func loadConfig(cmd *cobra.Command) (*audio.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := audio.LoadConfigIfExists(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if v, _ := flags.GetString("device"); v != "" {
		cfg.Device.Kind = audio.DeviceKind(v)
	}
	if v, _ := flags.GetInt("sample-rate"); v > 0 {
		cfg.Engine.SampleRate = v
	}
	if v, _ := flags.GetInt("cell-size"); v > 0 {
		cfg.Engine.CellSize = v
	}
	if v, _ := flags.GetString("metrics-addr"); v != "" {
		cfg.Metrics.Addr = v
	}

	logging.Init(cfg.Logging())
	return cfg, nil
}

// startMetrics creates engine metrics and serves them when an address is configured
func startMetrics(cfg *audio.Config) *engine.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := engine.NewMetrics(reg)

	if cfg.Metrics.Addr == "" {
		return m
	}

	log := logging.WithComponent("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
	return m
}
