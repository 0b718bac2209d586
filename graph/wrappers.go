package graph

import (
	"fmt"
	"math"

	"github.com/lixenwraith/tickgraph/event"
)

// fixed is the control-rate core of the number, boolean and function wrappers
// The cell is recomputed only when value, mul or add change
type fixed struct {
	*Base
	value float64
}

func (c *fixed) init(s Scheduler, self Node, kind string, v float64) {
	c.Base = NewBase(s, self, kind)
	c.FixKR()
	c.value = v
	c.OnUnremovable(event.KindSetMul, c.changeWithValue)
	c.OnUnremovable(event.KindSetAdd, c.changeWithValue)
	c.refresh()
}

func (c *fixed) changeWithValue(event.Event) {
	c.refresh()
}

func (c *fixed) refresh() {
	c.cell.Fill(c.value*c.mul + c.add)
}

// Evaluate returns the cached constant cell
func (c *fixed) Evaluate(tick uint64) Cell {
	c.Advance(tick)
	return c.cell
}

// Number wraps a numeric constant
type Number struct {
	fixed
}

// NewNumber creates a control-rate node holding v
func NewNumber(s Scheduler, v float64) *Number {
	n := &Number{}
	n.init(s, n, "number", sanitize(v))
	return n
}

// newUndefined creates the silent placeholder used when coercion fails
func newUndefined(s Scheduler) *Number {
	n := NewNumber(s, 0)
	n.undefined = true
	return n
}

// Value returns the wrapped number
func (n *Number) Value() float64 {
	return n.value
}

// SetValue replaces the wrapped number, NaN becomes 0
func (n *Number) SetValue(v float64) {
	n.value = sanitize(v)
	n.refresh()
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Boolean wraps a flag as 1 or 0
type Boolean struct {
	fixed
}

// NewBoolean creates a control-rate node holding v
func NewBoolean(s Scheduler, v bool) *Boolean {
	n := &Boolean{}
	n.init(s, n, "boolean", boolValue(v))
	return n
}

// Value returns the wrapped flag
func (n *Boolean) Value() bool {
	return n.value != 0
}

// SetValue replaces the wrapped flag
func (n *Boolean) SetValue(v bool) {
	n.value = boolValue(v)
	n.refresh()
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// Func computes a control value when a Function node is banged
// ok=false leaves the current value untouched
type Func func(arg any) (value float64, ok bool)

// Function wraps a callback invoked on bang
type Function struct {
	fixed
	fn   Func
	args []any
}

// NewFunction creates a control-rate node driven by fn
func NewFunction(s Scheduler, fn Func, args ...any) *Function {
	n := &Function{fn: fn, args: args}
	n.init(s, n, "function", 0)
	return n
}

// Func returns the callback
func (n *Function) Func() Func {
	return n.fn
}

// SetFunc replaces the callback, nil is ignored
func (n *Function) SetFunc(fn Func) {
	if fn != nil {
		n.fn = fn
	}
}

// Args returns the extra construction arguments
func (n *Function) Args() []any {
	return n.args
}

// SetArgs replaces the extra arguments
func (n *Function) SetArgs(args ...any) {
	n.args = args
}

// Value returns the last computed value
func (n *Function) Value() float64 {
	return n.value
}

// Bang invokes the callback with no argument
func (n *Function) Bang() {
	n.BangWith(nil)
}

// BangWith invokes the callback with arg and stores a returned value
// A panicking callback is logged and leaves the value untouched
func (n *Function) BangWith(arg any) {
	if n.fn != nil {
		if v, ok := n.call(arg); ok {
			n.value = sanitize(v)
			n.refresh()
		}
	}
	n.Emit(event.KindBang, arg)
}

func (n *Function) call(arg any) (v float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrNodeFault, r)
			n.log.Error().Err(err).Msg("function callback failed")
			n.sched.Fault(n, err)
			v, ok = 0, false
		}
	}()
	return n.fn(arg)
}

// Array holds a sequence value and passes the sum of its inputs through
type Array struct {
	*Base
	value any
}

// NewArray wraps a sequence
func NewArray(s Scheduler, value any) *Array {
	n := &Array{value: value}
	n.Base = NewBase(s, n, "array")
	return n
}

// Value returns the wrapped sequence
func (n *Array) Value() any {
	return n.value
}

// Evaluate sums the inputs and applies mul/add
func (n *Array) Evaluate(tick uint64) Cell {
	if n.Advance(tick) {
		n.sumInputs(tick)
		n.cell.Scale(n.mul, n.add)
	}
	return n.cell
}

// Object holds a record value and passes the sum of its inputs through
type Object struct {
	*Base
	value map[string]any
}

// NewObject wraps a record
func NewObject(s Scheduler, value map[string]any) *Object {
	n := &Object{value: value}
	n.Base = NewBase(s, n, "object")
	return n
}

// Value returns the wrapped record
func (n *Object) Value() map[string]any {
	return n.value
}

// Evaluate sums the inputs and applies mul/add
func (n *Object) Evaluate(tick uint64) Cell {
	if n.Advance(tick) {
		n.sumInputs(tick)
		n.cell.Scale(n.mul, n.add)
	}
	return n.cell
}
