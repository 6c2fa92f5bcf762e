// Package synth turns text into encoded speech for the relay.
package synth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("synthesis API key is not configured")
	ErrNoAudio       = errors.New("no audio generated")
	ErrEmptyText     = errors.New("text is required")
)

// Result is one synthesized utterance.
type Result struct {
	Audio    string // base64 encoded audio file
	Duration time.Duration
}

// Synthesizer converts text to speech using voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (Result, error)
}
