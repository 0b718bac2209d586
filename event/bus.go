package event

// Listener receives events from a Bus
type Listener func(Event)

// ListenerID identifies a registration for removal
type ListenerID uint64

type record struct {
	id          ListenerID
	fn          Listener
	once        bool
	unremovable bool
}

// Bus is a per-entity publish/subscribe table
// Not safe for concurrent use; entities are mutated on the engine thread only
type Bus struct {
	source    any
	listeners map[Kind][]record
	nextID    ListenerID
}

// NewBus creates a bus whose events carry source
func NewBus(source any) *Bus {
	return &Bus{source: source}
}

// SetSource changes the Source field of emitted events
func (b *Bus) SetSource(source any) {
	b.source = source
}

// On registers fn for kind
func (b *Bus) On(kind Kind, fn Listener) ListenerID {
	return b.add(kind, fn, false, false)
}

// Once registers fn for a single delivery of kind
func (b *Bus) Once(kind Kind, fn Listener) ListenerID {
	return b.add(kind, fn, true, false)
}

// OnUnremovable registers fn so that RemoveAll keeps it
// Used for internal bookkeeping that user code must not detach
func (b *Bus) OnUnremovable(kind Kind, fn Listener) ListenerID {
	return b.add(kind, fn, false, true)
}

func (b *Bus) add(kind Kind, fn Listener, once, unremovable bool) ListenerID {
	if fn == nil {
		return 0
	}
	if b.listeners == nil {
		b.listeners = make(map[Kind][]record)
	}
	b.nextID++
	b.listeners[kind] = append(b.listeners[kind], record{
		id:          b.nextID,
		fn:          fn,
		once:        once,
		unremovable: unremovable,
	})
	return b.nextID
}

// Off removes a single registration, unremovable ones included
func (b *Bus) Off(kind Kind, id ListenerID) bool {
	list := b.listeners[kind]
	for i, r := range list {
		if r.id == id {
			b.listeners[kind] = append(list[:i:i], list[i+1:]...)
			if len(b.listeners[kind]) == 0 {
				delete(b.listeners, kind)
			}
			return true
		}
	}
	return false
}

// RemoveAll drops every removable listener of kind
func (b *Bus) RemoveAll(kind Kind) {
	list := b.listeners[kind]
	if len(list) == 0 {
		return
	}
	kept := make([]record, 0, len(list))
	for _, r := range list {
		if r.unremovable {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		delete(b.listeners, kind)
		return
	}
	b.listeners[kind] = kept
}

// Clear drops every removable listener of every kind
func (b *Bus) Clear() {
	for kind := range b.listeners {
		b.RemoveAll(kind)
	}
}

// Listeners returns the number of listeners registered for kind
func (b *Bus) Listeners(kind Kind) int {
	return len(b.listeners[kind])
}

// Emit delivers an event to a snapshot of the current listeners
// Returns false when nobody listens
func (b *Bus) Emit(kind Kind, payload any) bool {
	list := b.listeners[kind]
	if len(list) == 0 {
		return false
	}

	snapshot := make([]record, len(list))
	copy(snapshot, list)

	ev := Event{Kind: kind, Source: b.source, Payload: payload}
	for _, r := range snapshot {
		if r.once {
			if !b.Off(kind, r.id) {
				continue // already consumed by a nested emit
			}
		}
		r.fn(ev)
	}
	return true
}
