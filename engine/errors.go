package engine

import "errors"

// Sentinel errors
var (
	ErrBusy             = errors.New("engine is not idle")
	ErrRecordingPending = errors.New("recording already in progress")
	ErrRecordingAborted = errors.New("recording aborted")
	ErrNoSetup          = errors.New("recording setup function is nil")
)
