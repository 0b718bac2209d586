package graph

import (
	"slices"
)

// fakeScheduler drives nodes without an engine
// Deferred calls queue until step or flush, mirroring a running engine
type fakeScheduler struct {
	rate    int
	cell    int
	tick    uint64
	queue   []func()
	sets    map[ActiveSet][]Node
	faults  []error
	removed int
	factory *Factory
}

func newFakeScheduler(rate, cell int) *fakeScheduler {
	s := &fakeScheduler{
		rate: rate,
		cell: cell,
		sets: make(map[ActiveSet][]Node),
	}
	s.factory = NewFactory(s)
	return s
}

func (s *fakeScheduler) SampleRate() int    { return s.rate }
func (s *fakeScheduler) CellSize() int      { return s.cell }
func (s *fakeScheduler) Tick() uint64       { return s.tick }
func (s *fakeScheduler) Factory() *Factory  { return s.factory }
func (s *fakeScheduler) Deactivated()       { s.removed++ }
func (s *fakeScheduler) NextTick(fn func()) { s.queue = append(s.queue, fn) }

func (s *fakeScheduler) Activate(set ActiveSet, n Node) bool {
	if slices.Contains(s.sets[set], n) {
		return false
	}
	s.sets[set] = append(s.sets[set], n)
	return true
}

func (s *fakeScheduler) IsActive(set ActiveSet, n Node) bool {
	return slices.Contains(s.sets[set], n)
}

func (s *fakeScheduler) Fault(n Node, err error) {
	s.faults = append(s.faults, err)
}

// flush runs the callbacks queued before the call
func (s *fakeScheduler) flush() {
	pending := s.queue
	s.queue = nil
	for _, fn := range pending {
		fn()
	}
}

// step processes one tick in engine order and returns the mixed root output
func (s *fakeScheduler) step() Cell {
	s.tick++
	out := NewCell(s.cell)
	for _, t := range slices.Clone(s.sets[Timers]) {
		Pull(t, s.tick)
	}
	for _, r := range slices.Clone(s.sets[Roots]) {
		out.Accumulate(Pull(r, s.tick))
	}
	for _, l := range slices.Clone(s.sets[Listeners]) {
		Pull(l, s.tick)
	}
	for _, set := range []ActiveSet{Timers, Roots, Listeners} {
		s.sets[set] = slices.DeleteFunc(s.sets[set], func(n Node) bool {
			return n.Core().Membership().ConsumeRemoval()
		})
	}
	s.flush()
	return out
}

// probe counts evaluations and bangs
type probe struct {
	*Base
	value float64
	evals int
	bangs int
}

func newProbe(s Scheduler, v float64) *probe {
	p := &probe{value: v}
	p.Base = NewBase(s, p, "probe")
	return p
}

func (p *probe) Evaluate(tick uint64) Cell {
	if p.Advance(tick) {
		p.evals++
		p.cell.Fill(p.value)
	}
	return p.cell
}

func (p *probe) Bang() {
	p.bangs++
	p.Base.Bang()
}

// faulty panics on every evaluation
type faulty struct {
	*Base
}

func newFaulty(s Scheduler) *faulty {
	f := &faulty{}
	f.Base = NewBase(s, f, "faulty")
	return f
}

func (f *faulty) Evaluate(tick uint64) Cell {
	f.cell.Fill(1)
	panic("boom")
}

func samples(rate int, data ...float64) Samples {
	return Samples{Data: data, SampleRate: rate}
}
