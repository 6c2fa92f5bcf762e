package tts

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakeasy/internal/audio"
)

// EngineFactory creates the audio engine on first playback.
type EngineFactory func() (audio.Engine, error)

// resources owns the lazily created engine and the single active source.
type resources struct {
	factory EngineFactory
	log     *log.Logger

	engine    audio.Engine
	active    audio.Source
	activeSeq uint64
	nextSeq   uint64
}

// acquire returns the engine, creating it if needed. A failed creation is
// retried on the next call.
func (r *resources) acquire() (audio.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	e, err := r.factory()
	if err != nil {
		return nil, err
	}
	r.engine = e
	r.log.Debug("Audio engine created", "engine", fmt.Sprintf("%T", e))
	return e, nil
}

// start plays buf as the new active source. onEnded receives the source's
// sequence number so stale completions can be told apart.
func (r *resources) start(e audio.Engine, buf *audio.Buffer, onEnded func(seq uint64)) error {
	r.nextSeq++
	seq := r.nextSeq
	src, err := e.Start(buf, func() { onEnded(seq) })
	if err != nil {
		return err
	}
	r.active = src
	r.activeSeq = seq
	return nil
}

// isActive reports whether seq identifies the current source.
func (r *resources) isActive(seq uint64) bool {
	return r.active != nil && r.activeSeq == seq
}

// release forgets the active source without stopping it.
func (r *resources) release() {
	r.active = nil
	r.activeSeq = 0
}

// halt stops and forgets the active source. Stop failures are ignored.
func (r *resources) halt() {
	if r.active == nil {
		return
	}
	if err := r.active.Stop(); err != nil {
		r.log.Debug("Ignoring stop failure", "error", err)
	}
	r.release()
}

func (r *resources) close() error {
	r.halt()
	if r.engine == nil {
		return nil
	}
	err := r.engine.Close()
	r.engine = nil
	return err
}
