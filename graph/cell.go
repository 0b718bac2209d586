package graph

// Cell is one tick's block of samples produced by a node
// Length equals the engine cell size for the lifetime of the engine
type Cell []float64

// NewCell allocates a zeroed cell
func NewCell(size int) Cell {
	return make(Cell, size)
}

// Fill sets every sample to v
func (c Cell) Fill(v float64) {
	for i := range c {
		c[i] = v
	}
}

// Zero silences the cell
func (c Cell) Zero() {
	clear(c)
}

// Scale applies c[i] = c[i]*mul + add
func (c Cell) Scale(mul, add float64) {
	if mul == 1 && add == 0 {
		return
	}
	for i := range c {
		c[i] = c[i]*mul + add
	}
}

// Accumulate adds src elementwise into c
func (c Cell) Accumulate(src Cell) {
	n := min(len(c), len(src))
	for i := 0; i < n; i++ {
		c[i] += src[i]
	}
}

// Samples is raw sample data with its native rate
type Samples struct {
	Data       []float64
	SampleRate int
}

// Duration returns the length in milliseconds
func (s Samples) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Data)) * 1000 / float64(s.SampleRate)
}
