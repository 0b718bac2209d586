package engine

// StreamConfig describes the stream the engine asks a device for
type StreamConfig struct {
	SampleRate int
	Channels   int
	// BlockSize is the engine's output-stream block, the device may use another granularity
	BlockSize int
}

// Source is the engine surface a device adapter pulls samples from
type Source interface {
	// SampleRate returns the engine rate, the adapter resamples when its own differs
	SampleRate() int
	// StreamSize returns the length of one rendered block
	StreamSize() int
	// Render processes one block under the engine lock and copies it into left and right
	Render(left, right []float64)
}

// Device opens output streams
// Implementations live in package audio
type Device interface {
	Open(src Source, cfg StreamConfig) (Stream, error)
}

// RateLimiter is implemented by devices with a sample rate ceiling
type RateLimiter interface {
	MaxSampleRate() int
}

// Stream is an open device output
// Close may be called from inside Render and must not wait for the device callback
type Stream interface {
	Close() error
}
