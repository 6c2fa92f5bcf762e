//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce     sync.Once
	otoContext  *oto.Context
	otoRate     int
	otoChannels int
	otoErr      error
)

const (
	otoReadyTimeout = 5 * time.Second
	otoBufferSize   = 50 * time.Millisecond
	otoPollInterval = 10 * time.Millisecond
)

// OtoEngine plays buffers through the system audio device.
type OtoEngine struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
	volume     float64
	log        *log.Logger
	closed     atomic.Bool
}

// NewOtoEngine returns an engine bound to the process-wide oto context,
// creating it on first use.
func NewOtoEngine(opts EngineOptions) (*OtoEngine, error) {
	if opts.SampleRate <= 0 || opts.Channels <= 0 {
		d := DefaultEngineOptions()
		opts.SampleRate, opts.Channels = d.SampleRate, d.Channels
	}
	if opts.Logger == nil {
		opts.Logger = log.Default().WithPrefix("audio")
	}

	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   opts.SampleRate,
			ChannelCount: opts.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   otoBufferSize,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to create audio context: %w", err)
			return
		}

		select {
		case <-ready:
		case <-time.After(otoReadyTimeout):
			otoErr = errors.New("audio context initialization timeout")
			return
		}

		otoContext = ctx
		otoRate = opts.SampleRate
		otoChannels = opts.Channels
		opts.Logger.Debug("Audio context ready", "sampleRate", otoRate, "channels", otoChannels)
	})
	if otoErr != nil {
		return nil, otoErr
	}

	return &OtoEngine{
		ctx:        otoContext,
		sampleRate: otoRate,
		channels:   otoChannels,
		volume:     clampVolume(opts.Volume),
		log:        opts.Logger,
	}, nil
}

// Resume wakes the output device.
func (e *OtoEngine) Resume() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.ctx.Resume()
}

// Start converts buf to the device format and begins playback.
func (e *OtoEngine) Start(buf *Buffer, onEnded func()) (Source, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	out, err := Convert(buf, e.sampleRate, e.channels)
	if err != nil {
		return nil, err
	}

	player := e.ctx.NewPlayer(bytes.NewReader(out.PCM))
	player.SetVolume(e.volume)
	player.Play()

	src := &otoSource{player: player, log: e.log}
	go src.watch(onEnded)

	return src, nil
}

// Close suspends the device. The context itself lives for the process.
func (e *OtoEngine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.ctx.Suspend()
}

type otoSource struct {
	player *oto.Player
	log    *log.Logger
	done   atomic.Bool
}

// watch polls the player until it drains, then reports completion
// unless Stop got there first.
func (s *otoSource) watch(onEnded func()) {
	ticker := time.NewTicker(otoPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if s.done.Load() {
			return
		}
		if !s.player.IsPlaying() {
			break
		}
	}

	if !s.done.CompareAndSwap(false, true) {
		return
	}
	if err := s.player.Err(); err != nil {
		s.log.Warn("Playback ended with error", "error", err)
	}
	if err := s.player.Close(); err != nil {
		s.log.Debug("Failed to close player", "error", err)
	}
	if onEnded != nil {
		onEnded()
	}
}

func (s *otoSource) Stop() error {
	if !s.done.CompareAndSwap(false, true) {
		return nil
	}
	s.player.Pause()
	return s.player.Close()
}
