package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBusEmitOrder verifies listeners run in registration order
func TestBusEmitOrder(t *testing.T) {
	b := NewBus("src")
	var got []int
	b.On(KindBang, func(Event) { got = append(got, 1) })
	b.On(KindBang, func(Event) { got = append(got, 2) })
	b.On(KindBang, func(Event) { got = append(got, 3) })

	assert.True(t, b.Emit(KindBang, nil))
	assert.Equal(t, []int{1, 2, 3}, got)
}

// TestBusEmitWithoutListeners verifies Emit reports no delivery
func TestBusEmitWithoutListeners(t *testing.T) {
	b := NewBus(nil)
	assert.False(t, b.Emit(KindEnded, nil))
}

// TestBusEventFields verifies source and payload reach the listener
func TestBusEventFields(t *testing.T) {
	b := NewBus("node")
	var ev Event
	b.On(KindSetMul, func(e Event) { ev = e })
	b.Emit(KindSetMul, 0.5)

	assert.Equal(t, KindSetMul, ev.Kind)
	assert.Equal(t, "node", ev.Source)
	assert.Equal(t, 0.5, ev.Payload)
}

// TestBusOnce verifies one-shot listeners fire a single time
func TestBusOnce(t *testing.T) {
	b := NewBus(nil)
	count := 0
	b.Once(KindInit, func(Event) { count++ })

	b.Emit(KindInit, nil)
	b.Emit(KindInit, nil)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, b.Listeners(KindInit))
}

// TestBusOnceReentrant verifies a nested emit does not replay a once listener
func TestBusOnceReentrant(t *testing.T) {
	b := NewBus(nil)
	count := 0
	b.Once(KindBang, func(Event) {
		count++
		b.Emit(KindBang, nil)
	})

	b.Emit(KindBang, nil)
	assert.Equal(t, 1, count)
}

// TestBusOff verifies single listener removal by id
func TestBusOff(t *testing.T) {
	b := NewBus(nil)
	count := 0
	id := b.On(KindPlay, func(Event) { count++ })
	b.On(KindPlay, func(Event) { count += 10 })

	require.True(t, b.Off(KindPlay, id))
	assert.False(t, b.Off(KindPlay, id))

	b.Emit(KindPlay, nil)
	assert.Equal(t, 10, count)
}

// TestBusRemoveAllKeepsUnremovable verifies internal listeners survive bulk removal
func TestBusRemoveAllKeepsUnremovable(t *testing.T) {
	b := NewBus(nil)
	var got []string
	b.On(KindSetAdd, func(Event) { got = append(got, "user") })
	b.OnUnremovable(KindSetAdd, func(Event) { got = append(got, "internal") })

	b.RemoveAll(KindSetAdd)
	assert.Equal(t, 1, b.Listeners(KindSetAdd))

	b.Emit(KindSetAdd, 1.0)
	assert.Equal(t, []string{"internal"}, got)
}

// TestBusClear verifies Clear applies RemoveAll to every kind
func TestBusClear(t *testing.T) {
	b := NewBus(nil)
	b.On(KindPlay, func(Event) {})
	b.On(KindPause, func(Event) {})
	b.OnUnremovable(KindAddObject, func(Event) {})

	b.Clear()

	assert.Equal(t, 0, b.Listeners(KindPlay))
	assert.Equal(t, 0, b.Listeners(KindPause))
	assert.Equal(t, 1, b.Listeners(KindAddObject))
}

// TestBusSnapshot verifies listeners added during emit wait for the next emit
func TestBusSnapshot(t *testing.T) {
	b := NewBus(nil)
	count := 0
	b.On(KindBang, func(Event) {
		b.On(KindBang, func(Event) { count++ })
	})

	b.Emit(KindBang, nil)
	assert.Equal(t, 0, count)

	b.Emit(KindBang, nil)
	assert.Equal(t, 1, count)
}

// TestKindNames verifies names round-trip
func TestKindNames(t *testing.T) {
	for k := KindInit; k < kindCount; k++ {
		name := k.String()
		require.NotEqual(t, "unknown", name)
		parsed, ok := ParseKind(name)
		require.True(t, ok, name)
		assert.Equal(t, k, parsed)
	}
	assert.Equal(t, "unknown", Kind(-1).String())
	_, ok := ParseKind("nope")
	assert.False(t, ok)
}
