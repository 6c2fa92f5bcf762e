package tts

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced through PlaybackError. Use errors.Is to classify.
var (
	ErrEngineInit = errors.New("audio engine unavailable")
	ErrPlayback   = errors.New("playback failed to start")
	ErrDecode     = errors.New("audio decode failed")
	ErrFetch      = errors.New("prerecorded audio fetch failed")
	ErrSend       = errors.New("synthesis request could not be sent")
	ErrSynthesis  = errors.New("synthesis failed")
	ErrTimeout    = errors.New("synthesis request timed out")
	ErrClosed     = errors.New("coordinator closed")
)

// PlaybackError records which step of which request failed.
type PlaybackError struct {
	Op        string // speak, await, synthesize, decode, fetch, play
	RequestID string
	Err       error
}

func (e *PlaybackError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.RequestID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// newPlaybackError wraps cause under kind so both match errors.Is.
func newPlaybackError(op, requestID string, kind, cause error) *PlaybackError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &PlaybackError{Op: op, RequestID: requestID, Err: err}
}
