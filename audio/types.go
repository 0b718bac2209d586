package audio

import (
	"errors"
)

// BackendType identifies the audio backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

func (b BackendType) String() string {
	switch b {
	case BackendPulse:
		return "pulse"
	case BackendPipeWire:
		return "pipewire"
	case BackendALSA:
		return "alsa"
	case BackendSoX:
		return "sox"
	case BackendFFplay:
		return "ffplay"
	case BackendOSS:
		return "oss"
	default:
		return "unknown"
	}
}

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// DeviceKind selects the output device adapter
type DeviceKind string

const (
	DeviceSpeaker   DeviceKind = "speaker"
	DevicePipe      DeviceKind = "pipe"
	DevicePortAudio DeviceKind = "portaudio"
	DeviceNull      DeviceKind = "null"
)

// Sentinel errors
var (
	ErrNoAudioBackend    = errors.New("no compatible audio backend found")
	ErrPipeClosed        = errors.New("audio pipe closed")
	ErrNoDevice          = errors.New("audio device unavailable")
	ErrUnknownDevice     = errors.New("unknown audio device kind")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyRecording    = errors.New("recording holds no samples")
)
