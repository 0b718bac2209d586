package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/tickgraph/constant"
	"github.com/lixenwraith/tickgraph/engine"
	"github.com/lixenwraith/tickgraph/logging"
)

// Config is the process configuration: engine, output device, logging and metrics
type Config struct {
	Engine  engine.Config `yaml:"engine"`
	Device  DeviceConfig  `yaml:"device"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DeviceConfig selects and tunes the output device
type DeviceConfig struct {
	Kind DeviceKind `yaml:"kind"`
	// SampleRate is the device rate, 0 follows the engine
	SampleRate int           `yaml:"sample_rate"`
	Buffer     time.Duration `yaml:"buffer"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig configures the prometheus endpoint, empty Addr disables it
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: engine.DefaultConfig(),
		Device: DeviceConfig{
			Kind:   DeviceSpeaker,
			Buffer: constant.DefaultDeviceBuffer,
		},
		Log: LogConfig{
			Level: string(logging.InfoLevel),
		},
	}
}

// LoadConfig reads path over the defaults, then applies TICKGRAPH_* environment overrides
// An empty path skips the file
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadConfigIfExists is LoadConfig that treats a missing file as empty
func LoadConfigIfExists(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return LoadConfig("")
	}
	return cfg, err
}

// ApplyEnv loads overrides from environment variables
func (c *Config) ApplyEnv() {
	// Load sample rate
	if v := os.Getenv("TICKGRAPH_SAMPLE_RATE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Engine.SampleRate = val
		}
	}

	if v := os.Getenv("TICKGRAPH_CELL_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Engine.CellSize = val
		}
	}

	// Load amp (0-100 converted to 0.0-1.0)
	if v := os.Getenv("TICKGRAPH_AMP"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			c.Engine.Amp = min(max(float64(val)/100.0, 0), 1)
		}
	}

	if v := os.Getenv("TICKGRAPH_RECORD_LIMIT"); v != "" {
		if val, err := time.ParseDuration(v); err == nil && val >= 0 {
			c.Engine.RecordLimit = val
		}
	}

	if v := os.Getenv("TICKGRAPH_DEVICE"); v != "" {
		c.Device.Kind = DeviceKind(v)
	}

	if v := os.Getenv("TICKGRAPH_DEVICE_SAMPLE_RATE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			c.Device.SampleRate = val
		}
	}

	if v := os.Getenv("TICKGRAPH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if v := os.Getenv("TICKGRAPH_LOG_JSON"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			c.Log.JSON = val
		}
	}

	if v := os.Getenv("TICKGRAPH_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Logging converts the log section for logging.Init
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      logging.Level(c.Log.Level),
		JSONOutput: c.Log.JSON,
	}
}

// NewDevice builds the configured output device
func (c *Config) NewDevice() (engine.Device, error) {
	switch c.Device.Kind {
	case DeviceSpeaker, "":
		rate := c.Device.SampleRate
		if rate <= 0 {
			rate = c.Engine.SampleRate
		}
		return NewSpeakerDevice(rate, c.Device.Buffer), nil
	case DevicePipe:
		return NewPipeDevice(c.Device.SampleRate, c.Device.Buffer), nil
	case DevicePortAudio:
		return NewPortAudioDevice(0)
	case DeviceNull:
		return NewWriterDevice(nil, c.Device.SampleRate, c.Device.Buffer), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, c.Device.Kind)
	}
}
