package event

// Kind identifies an event emitted by a graph entity or the engine
type Kind int

const (
	// === Node Events ===

	// KindInit fires once after factory construction
	// Payload: nil
	KindInit Kind = iota

	// KindAppend fires after inputs were appended
	// Payload: appended nodes
	KindAppend

	// KindRemove fires after inputs were removed
	// Payload: removed nodes
	KindRemove

	// KindSetMul fires on every mul assignment
	// Payload: float64
	KindSetMul

	// KindSetAdd fires on every add assignment
	// Payload: float64
	KindSetAdd

	// KindRate fires when a node switches between audio and control rate
	// Payload: bool, true for audio rate
	KindRate

	// KindBang fires when a node is triggered
	// Payload: node specific, nil or int count
	KindBang

	// KindPlay fires when a node or mixer joins output
	KindPlay

	// KindPause fires when a node or mixer leaves output
	KindPause

	// KindStart fires when a timer enters the engine
	KindStart

	// KindStop fires when a timer leaves the engine
	KindStop

	// KindListen fires when a listener enters the engine
	KindListen

	// KindUnlisten fires when a listener leaves the engine
	KindUnlisten

	// KindLooped fires when a buffer wraps its phase
	KindLooped

	// KindEnded fires when a non-looping buffer runs out
	KindEnded

	// KindDone fires when a recording mixer is finished
	KindDone

	// === Engine Events ===

	// KindAddObject fires after a root, timer or listener became active
	KindAddObject

	// KindRemoveObject fires after a root, timer or listener was released
	KindRemoveObject

	// KindProcess fires after each output-stream block
	// Payload: uint64 tick counter
	KindProcess

	// KindReset fires after the engine dropped all active work
	KindReset

	kindCount
)

var kindNames = [kindCount]string{
	KindInit:         "init",
	KindAppend:       "append",
	KindRemove:       "remove",
	KindSetMul:       "setMul",
	KindSetAdd:       "setAdd",
	KindRate:         "rate",
	KindBang:         "bang",
	KindPlay:         "play",
	KindPause:        "pause",
	KindStart:        "start",
	KindStop:         "stop",
	KindListen:       "listen",
	KindUnlisten:     "unlisten",
	KindLooped:       "looped",
	KindEnded:        "ended",
	KindDone:         "done",
	KindAddObject:    "addObject",
	KindRemoveObject: "removeObject",
	KindProcess:      "process",
	KindReset:        "reset",
}

// String returns the event name
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind returns the Kind for a name
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Event is delivered to listeners
type Event struct {
	Kind    Kind
	Source  any
	Payload any
}
