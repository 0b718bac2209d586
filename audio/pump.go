package audio

import "github.com/lixenwraith/tickgraph/engine"

// Pump adapts engine blocks to a device running at another rate or granularity
// It steps a fractional read index by engineRate/deviceRate per device sample
// and renders a fresh engine block whenever the current one is exhausted
type Pump struct {
	src  engine.Source
	incr float64
	x    float64

	blockL []float64
	blockR []float64
}

// NewPump creates a pump delivering src at deviceRate
func NewPump(src engine.Source, deviceRate int) *Pump {
	size := src.StreamSize()
	p := &Pump{
		src:    src,
		incr:   1,
		blockL: make([]float64, size),
		blockR: make([]float64, size),
	}
	if deviceRate > 0 {
		p.incr = float64(src.SampleRate()) / float64(deviceRate)
	}
	// start exhausted so the first Fill renders
	p.x = float64(size)
	return p
}

// Ratio returns the read index increment per device sample
func (p *Pump) Ratio() float64 {
	return p.incr
}

// Fill writes len(left) device samples into left and right
// right may be nil for mono devices, which then receive the average of both sides
func (p *Pump) Fill(left, right []float64) {
	for i := range left {
		if p.x >= float64(len(p.blockL)) {
			p.render()
		}
		j := int(p.x)
		l, r := p.blockL[j], p.blockR[j]
		if right == nil {
			left[i] = (l + r) * 0.5
		} else {
			left[i] = l
			right[i] = r
		}
		p.x += p.incr
	}
}

func (p *Pump) render() {
	// the engine may have been reconfigured between streams
	if n := p.src.StreamSize(); n != len(p.blockL) {
		p.blockL = make([]float64, n)
		p.blockR = make([]float64, n)
		p.x = 0
	}
	p.src.Render(p.blockL, p.blockR)
	size := float64(len(p.blockL))
	for p.x >= size {
		p.x -= size
	}
}
