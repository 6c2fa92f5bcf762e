//go:build nocgo
// +build nocgo

package audio

import "errors"

// ErrAudioUnavailable is returned by NewOtoEngine in builds without cgo.
var ErrAudioUnavailable = errors.New("audio not available (built without cgo)")

// OtoEngine is a stub for builds without cgo. It cannot be constructed.
type OtoEngine struct{}

// NewOtoEngine always fails in nocgo builds; use the mock engine instead.
func NewOtoEngine(EngineOptions) (*OtoEngine, error) {
	return nil, ErrAudioUnavailable
}

func (e *OtoEngine) Resume() error { return ErrAudioUnavailable }

func (e *OtoEngine) Start(*Buffer, func()) (Source, error) { return nil, ErrAudioUnavailable }

func (e *OtoEngine) Close() error { return nil }
