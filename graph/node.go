package graph

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/tickgraph/event"
	"github.com/lixenwraith/tickgraph/logging"
)

// Node is a graph vertex evaluated once per tick
type Node interface {
	// Evaluate produces the node's cell for tick, memoized per tick
	Evaluate(tick uint64) Cell
	// Core exposes the shared node state
	Core() *Base
	// Bang triggers the node
	Bang()
}

// Stereo is implemented by nodes that expose separate channels
type Stereo interface {
	Node
	Left() *Channel
	Right() *Channel
}

// Base holds the state shared by every node
// Concrete nodes embed *Base and implement Evaluate
type Base struct {
	*event.Bus

	id    uuid.UUID
	kind  string
	self  Node
	sched Scheduler
	log   zerolog.Logger

	inputs []Node
	cell   Cell

	lastTick uint64
	stamped  bool

	ar     bool
	arOnly bool
	krOnly bool
	mul    float64
	add    float64

	undefined  bool
	dac        *RootMixer
	membership Membership
}

// NewBase creates the shared state for self
// kind is a short type name used in logs and String
func NewBase(s Scheduler, self Node, kind string) *Base {
	id := uuid.New()
	b := &Base{
		Bus:   event.NewBus(self),
		id:    id,
		kind:  kind,
		self:  self,
		sched: s,
		log:   logging.WithNode("graph", kind, id.String()),
		cell:  NewCell(s.CellSize()),
		ar:    true,
		mul:   1,
	}
	return b
}

// Core returns b, satisfying Node for embedders
func (b *Base) Core() *Base {
	return b
}

// ID returns the node's unique id
func (b *Base) ID() uuid.UUID {
	return b.id
}

// Kind returns the node type name
func (b *Base) Kind() string {
	return b.kind
}

func (b *Base) String() string {
	return fmt.Sprintf("%s(%s)", b.kind, b.id.String()[:8])
}

// Scheduler returns the engine the node belongs to
func (b *Base) Scheduler() Scheduler {
	return b.sched
}

// Logger returns the node's logger
func (b *Base) Logger() *zerolog.Logger {
	return &b.log
}

// Cell returns the last computed block, owned by the node
func (b *Base) Cell() Cell {
	return b.cell
}

// Inputs returns the upstream nodes in order; callers must not modify the slice
func (b *Base) Inputs() []Node {
	return b.inputs
}

// Advance records tick and reports whether the node must compute it
// Returns false when the cell for tick is already cached
func (b *Base) Advance(tick uint64) bool {
	if b.stamped && b.lastTick == tick {
		return false
	}
	b.stamped = true
	b.lastTick = tick
	return true
}

// LastTick returns the most recent evaluated tick
func (b *Base) LastTick() (uint64, bool) {
	return b.lastTick, b.stamped
}

// ValueOf returns the first sample, evaluating at the engine's current tick if stale
func (b *Base) ValueOf() float64 {
	tick := b.sched.Tick()
	if !b.stamped || b.lastTick != tick {
		Pull(b.self, tick)
	}
	if len(b.cell) == 0 {
		return 0
	}
	return b.cell[0]
}

// === Rate ===

// IsAudioRate reports whether the node recomputes every tick
func (b *Base) IsAudioRate() bool {
	return b.ar
}

// IsControlRate reports whether the node only recomputes on parameter change
func (b *Base) IsControlRate() bool {
	return !b.ar
}

// AR switches to audio rate unless pinned to control rate
func (b *Base) AR() {
	if b.krOnly {
		return
	}
	b.ar = true
	b.Emit(event.KindRate, true)
}

// KR switches to control rate unless pinned to audio rate
func (b *Base) KR() {
	if b.arOnly {
		return
	}
	b.ar = false
	b.Emit(event.KindRate, false)
}

// FixAR pins the node to audio rate
func (b *Base) FixAR() {
	b.ar = true
	b.arOnly = true
}

// FixKR pins the node to control rate
func (b *Base) FixKR() {
	b.ar = false
	b.krOnly = true
}

// === Scaling ===

// Mul returns the post multiply factor
func (b *Base) Mul() float64 {
	return b.mul
}

// SetMul changes the multiply factor and emits setMul
func (b *Base) SetMul(v float64) {
	b.mul = v
	b.Emit(event.KindSetMul, v)
}

// Add returns the post offset
func (b *Base) Add() float64 {
	return b.add
}

// SetAdd changes the offset and emits setAdd
func (b *Base) SetAdd(v float64) {
	b.add = v
	b.Emit(event.KindSetAdd, v)
}

// IsUndefined reports a placeholder produced by failed coercion
func (b *Base) IsUndefined() bool {
	return b.undefined
}

// === Structure ===

// Append coerces values to nodes and adds them as inputs
func (b *Base) Append(values ...any) {
	if len(values) == 0 {
		return
	}
	b.appendNodes(b.coerce(values))
}

func (b *Base) coerce(values []any) []Node {
	f := b.sched.Factory()
	nodes := make([]Node, 0, len(values))
	for _, v := range values {
		nodes = append(nodes, f.Node(v))
	}
	return nodes
}

func (b *Base) appendNodes(nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	b.inputs = append(b.inputs, nodes...)
	b.Emit(event.KindAppend, nodes)
}

// AppendTo adds the node as an input of parent
func (b *Base) AppendTo(parent Node) {
	if m, ok := parent.(*RootMixer); ok {
		m.Append(b.self)
		return
	}
	parent.Core().appendNodes([]Node{b.self})
}

// Remove drops the first occurrence of each node from the inputs
func (b *Base) Remove(nodes ...Node) {
	var removed []Node
	for _, n := range nodes {
		if i := slices.Index(b.inputs, n); i >= 0 {
			removed = append(removed, b.inputs[i])
			b.inputs = slices.Delete(b.inputs, i, i+1)
		}
	}
	if len(removed) > 0 {
		b.Emit(event.KindRemove, removed)
	}
}

// RemoveFrom drops the node from parent's inputs
func (b *Base) RemoveFrom(parent Node) {
	if m, ok := parent.(*RootMixer); ok {
		m.Remove(b.self)
		return
	}
	parent.Core().Remove(b.self)
}

// RemoveAll clears every input
func (b *Base) RemoveAll() {
	list := b.inputs
	b.inputs = nil
	if len(list) > 0 {
		b.Emit(event.KindRemove, list)
	}
}

// RemoveAt drops the input at index
func (b *Base) RemoveAt(index int) {
	if index < 0 || index >= len(b.inputs) {
		return
	}
	item := b.inputs[index]
	b.inputs = slices.Delete(b.inputs, index, index+1)
	b.Emit(event.KindRemove, []Node{item})
}

// Bang emits bang
func (b *Base) Bang() {
	b.Emit(event.KindBang, nil)
}

// === Output routing ===

// DAC returns the root mixer the node plays through, nil if never played
func (b *Base) DAC() *RootMixer {
	return b.dac
}

// SetDAC moves the node to another root mixer
func (b *Base) SetDAC(m *RootMixer) {
	if m == nil || b.dac == m {
		return
	}
	if b.dac != nil {
		b.dac.Remove(b.self)
	}
	m.Append(b.self)
}

// Play routes the node to its root mixer and starts the mixer
func (b *Base) Play() {
	dac := b.dac
	emit := false
	if dac == nil {
		dac = NewRootMixer(b.sched)
		dac.Append(b.self)
		emit = true
	} else if !dac.Contains(b.self) {
		dac.Append(b.self)
		emit = true
	}
	dac.Play()
	if emit {
		b.Emit(event.KindPlay, nil)
	}
}

// Pause detaches the node from its root mixer, pausing the mixer when empty
func (b *Base) Pause() {
	dac := b.dac
	if dac == nil {
		return
	}
	if dac.Contains(b.self) {
		dac.Remove(b.self)
		b.Emit(event.KindPause, nil)
	}
	if dac.Len() == 0 {
		dac.Pause()
	}
}

// Membership exposes the engine set bookkeeping
func (b *Base) Membership() *Membership {
	return &b.membership
}

// === Configuration ===

// configure applies the options every node understands, mul and add
// Unknown keys are returned for the concrete node
func (b *Base) configure(opts map[string]any) map[string]any {
	rest := make(map[string]any, len(opts))
	for k, v := range opts {
		switch k {
		case "mul":
			if f, ok := toFloat(v); ok {
				b.SetMul(f)
			}
		case "add":
			if f, ok := toFloat(v); ok {
				b.SetAdd(f)
			}
		default:
			rest[k] = v
		}
	}
	return rest
}

// Configure applies a record of options, reporting unknown keys
func (b *Base) Configure(opts map[string]any) error {
	rest := b.configure(opts)
	return unknownOptions(b.kind, rest)
}

// sumInputs evaluates the inputs and sums them into the cell
func (b *Base) sumInputs(tick uint64) {
	cell := b.cell
	cell.Zero()
	for _, in := range b.inputs {
		cell.Accumulate(Pull(in, tick))
	}
}

// Pull evaluates n at tick, isolating a panicking node
// A failed node contributes a silent cell for that tick
func Pull(n Node, tick uint64) (cell Cell) {
	defer func() {
		if r := recover(); r != nil {
			b := n.Core()
			b.cell.Zero()
			err := fmt.Errorf("%w: %v", ErrNodeFault, r)
			b.log.Error().Err(err).Uint64("tick", tick).Msg("node evaluation failed")
			b.sched.Fault(n, err)
			cell = b.cell
		}
	}()
	return n.Evaluate(tick)
}
