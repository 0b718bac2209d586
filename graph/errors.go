package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors
var (
	ErrUnknownKey    = errors.New("unknown node key")
	ErrUnknownOption = errors.New("unknown node option")
	ErrBadOption     = errors.New("invalid node option value")
	ErrNodeFault     = errors.New("node evaluation fault")
)

func unknownOptions(kind string, rest map[string]any) error {
	if len(rest) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(rest))
	return fmt.Errorf("%w: %s does not accept %s", ErrUnknownOption, kind, strings.Join(keys, ", "))
}

func badOption(kind, key string, v any) error {
	return fmt.Errorf("%w: %s.%s = %v (%T)", ErrBadOption, kind, key, v, v)
}

// toFloat converts any Go numeric value
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
