package graph

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/tickgraph/event"
	"github.com/lixenwraith/tickgraph/logging"
)

// Variant classifies a value handed to the factory
type Variant int

const (
	VariantUnknown Variant = iota
	VariantNode
	VariantNumeric
	VariantBoolean
	VariantCallback
	VariantSequence
	VariantRecord
	VariantKey
)

var variantNames = [...]string{
	VariantUnknown:  "unknown",
	VariantNode:     "node",
	VariantNumeric:  "numeric",
	VariantBoolean:  "boolean",
	VariantCallback: "callback",
	VariantSequence: "sequence",
	VariantRecord:   "record",
	VariantKey:      "key",
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return "unknown"
	}
	return variantNames[v]
}

// Classify resolves the variant of v once, at construction time
func Classify(v any) Variant {
	switch x := v.(type) {
	case nil:
		return VariantUnknown
	case Node:
		return VariantNode
	case bool:
		return VariantBoolean
	case string:
		return VariantKey
	case Func, func(any) (float64, bool), func() float64:
		return VariantCallback
	case []any, []float64, []float32, []int, []Node:
		return VariantSequence
	case map[string]any:
		return VariantRecord
	default:
		if _, ok := toFloat(x); ok {
			return VariantNumeric
		}
		return VariantUnknown
	}
}

// Constructor builds a registered node from positional arguments
type Constructor func(s Scheduler, args []any) (Node, error)

// Configurer is implemented by nodes accepting a record of options
type Configurer interface {
	Configure(opts map[string]any) error
}

var builtins = map[string]Constructor{
	"buffer":   newBufferNode,
	"interval": newIntervalNode,
	"meter":    newMeterNode,
}

// Factory turns arbitrary values into nodes for one scheduler
// Keys are resolved against the builtin constructors plus any registered ones
type Factory struct {
	sched Scheduler
	log   zerolog.Logger

	mu       sync.RWMutex
	registry map[string]Constructor
	aliases  map[string]string
}

// NewFactory creates a factory bound to s with the builtin node types
func NewFactory(s Scheduler) *Factory {
	return &Factory{
		sched:    s,
		log:      logging.WithComponent("factory"),
		registry: maps.Clone(builtins),
		aliases:  make(map[string]string),
	}
}

// Register adds or replaces a constructor for key
func (f *Factory) Register(key string, ctor Constructor) {
	if key == "" || ctor == nil {
		return
	}
	f.mu.Lock()
	f.registry[key] = ctor
	f.mu.Unlock()
}

// Alias makes alias resolve to key
func (f *Factory) Alias(alias, key string) {
	f.mu.Lock()
	f.aliases[alias] = key
	f.mu.Unlock()
}

// Lookup resolves key through aliases to a constructor
func (f *Factory) Lookup(key string) (Constructor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if target, ok := f.aliases[key]; ok {
		key = target
	}
	ctor, ok := f.registry[key]
	return ctor, ok
}

// Keys returns the registered keys in sorted order
func (f *Factory) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Sorted(maps.Keys(f.registry))
}

// Make constructs the node registered under key
// A leading record argument is applied as configuration before init is emitted
// Unknown keys yield a silent placeholder together with ErrUnknownKey
func (f *Factory) Make(key string, args ...any) (Node, error) {
	ctor, ok := f.Lookup(key)
	if !ok {
		f.log.Warn().Str("key", key).Msg("unresolved node key, using silent placeholder")
		return newUndefined(f.sched), fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	var opts map[string]any
	if len(args) > 0 {
		if rec, isRec := args[0].(map[string]any); isRec {
			opts = rec
			args = args[1:]
		}
	}

	n, err := ctor(f.sched, args)
	if err != nil {
		f.log.Warn().Err(err).Str("key", key).Msg("node construction failed, using silent placeholder")
		return newUndefined(f.sched), fmt.Errorf("construct %s: %w", key, err)
	}
	if len(opts) > 0 {
		c, isConf := n.(Configurer)
		if !isConf {
			c = n.Core()
		}
		if err := c.Configure(opts); err != nil {
			f.log.Warn().Err(err).Str("key", key).Msg("node configuration incomplete")
		}
	}
	n.Core().Emit(event.KindInit, nil)
	return n, nil
}

// Node coerces v to a node; existing nodes are returned unchanged
// Values that cannot be coerced become an undefined placeholder
func (f *Factory) Node(v any) Node {
	switch Classify(v) {
	case VariantNode:
		return v.(Node)
	case VariantNumeric:
		x, _ := toFloat(v)
		return NewNumber(f.sched, x)
	case VariantBoolean:
		return NewBoolean(f.sched, v.(bool))
	case VariantCallback:
		return NewFunction(f.sched, toFunc(v))
	case VariantSequence:
		return NewArray(f.sched, v)
	case VariantRecord:
		return NewObject(f.sched, v.(map[string]any))
	case VariantKey:
		n, _ := f.Make(v.(string))
		return n
	default:
		f.log.Warn().Str("type", fmt.Sprintf("%T", v)).Msg("value cannot become a node, using silent placeholder")
		return newUndefined(f.sched)
	}
}

func toFunc(v any) Func {
	switch fn := v.(type) {
	case Func:
		return fn
	case func(any) (float64, bool):
		return fn
	case func() float64:
		return func(any) (float64, bool) { return fn(), true }
	default:
		return nil
	}
}

func newBufferNode(s Scheduler, args []any) (Node, error) {
	n := NewBuffer(s)
	for _, a := range args {
		smp, ok := toSamples(a)
		if !ok {
			return nil, badOption(n.kind, "buffer", a)
		}
		n.SetBuffer(smp)
	}
	return n, nil
}

func newIntervalNode(s Scheduler, args []any) (Node, error) {
	n := NewInterval(s, 0)
	if len(args) > 0 {
		if ms, ok := toFloat(args[0]); ok {
			n.SetPeriod(ms)
			args = args[1:]
		}
	}
	n.Append(args...)
	return n, nil
}

func newMeterNode(s Scheduler, args []any) (Node, error) {
	return NewMeter(s, args...), nil
}
