//go:build !portaudio

package audio

import (
	"fmt"

	"github.com/lixenwraith/tickgraph/engine"
)

// PortAudioAvailable reports whether the binary was built with portaudio support
const PortAudioAvailable = false

// NewPortAudioDevice reports that portaudio support was not compiled in
func NewPortAudioDevice(frames int) (engine.Device, error) {
	return nil, fmt.Errorf("%w: built without the portaudio tag", ErrNoDevice)
}
