package engine

import "sync"

// NewTestEngine creates an engine with small blocks and unit gain for tests
// 8 kHz, 32-sample cells and 256-sample stream blocks, eight ticks per Process
func NewTestEngine(opts ...Option) *Engine {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	cfg.CellSize = 32
	cfg.StreamMsec = 1
	cfg.Amp = 1
	return New(cfg, opts...)
}

// TestDevice records stream lifecycle calls without producing output
type TestDevice struct {
	mu      sync.Mutex
	MaxRate int
	Opened  int
	Closed  int
	Last    StreamConfig
}

// Open counts the call and returns a stream that counts Close
func (d *TestDevice) Open(src Source, cfg StreamConfig) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Opened++
	d.Last = cfg
	return &testStream{device: d}, nil
}

// MaxSampleRate returns MaxRate, 0 is unlimited
func (d *TestDevice) MaxSampleRate() int {
	return d.MaxRate
}

// Counts returns the open and close totals
func (d *TestDevice) Counts() (opened, closed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Opened, d.Closed
}

type testStream struct {
	device *TestDevice
}

func (s *testStream) Close() error {
	s.device.mu.Lock()
	s.device.Closed++
	s.device.mu.Unlock()
	return nil
}
