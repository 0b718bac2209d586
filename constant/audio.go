package constant

import "time"

// Engine defaults
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultCellSize   = 128
	DefaultAmp        = 0.8

	// DefaultStreamMsec is the target latency of one output-stream block
	DefaultStreamMsec = 20
)

// Stream block size bounds as powers of two (256 .. 16384 samples)
const (
	MinStreamBits = 8
	MaxStreamBits = 14
)

// AcceptedSampleRates lists rates the engine runs at, anything else is clamped
var AcceptedSampleRates = []int{
	8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000,
}

// AcceptedCellSizes lists per-tick block sizes, anything else is clamped
var AcceptedCellSizes = []int{32, 64, 128, 256}

// Recording drive loop pacing
const (
	// RecordThrottle is the busy time after which the drive loop yields
	RecordThrottle = 20 * time.Millisecond

	// RecordYield is how long the drive loop sleeps when it yields
	RecordYield = 10 * time.Millisecond
)

// Device defaults
const (
	DefaultDeviceBuffer = 100 * time.Millisecond
	MaxDeviceSampleRate = 48000
)

// Meter smoothing
const (
	MeterPeakDecay = 0.95
)
