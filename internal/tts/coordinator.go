package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakeasy/internal/audio"
	"github.com/dgnsrekt/speakeasy/internal/cache"
	"github.com/dgnsrekt/speakeasy/internal/protocol"
)

const (
	// DefaultRequestTimeout bounds how long a synthesis request may stay
	// unanswered.
	DefaultRequestTimeout = 15 * time.Second
	// DefaultErrorRevertDelay is how long the error state is shown before
	// returning to idle.
	DefaultErrorRevertDelay = 3 * time.Second
)

// Sender dispatches synthesis requests over the caller's channel. Replies
// are routed back through Coordinator.HandleResponse.
type Sender interface {
	Send(req protocol.TTSRequest) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(req protocol.TTSRequest) error

func (f SenderFunc) Send(req protocol.TTSRequest) error { return f(req) }

// Decoder turns encoded audio into PCM.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*audio.Buffer, error)
}

// Stats summarizes cache effectiveness and outstanding work.
type Stats struct {
	Text            cache.Stats
	URL             cache.Stats
	PendingRequests int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithEngineFactory overrides how the audio engine is created.
func WithEngineFactory(f EngineFactory) Option {
	return func(c *Coordinator) { c.res.factory = f }
}

// WithEngine uses e as the audio engine.
func WithEngine(e audio.Engine) Option {
	return WithEngineFactory(func() (audio.Engine, error) { return e, nil })
}

func WithDecoder(d Decoder) Option {
	return func(c *Coordinator) { c.decoder = d }
}

func WithFetcher(f Fetcher) Option {
	return func(c *Coordinator) { c.fetcher = f }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithRequestTimeout sets how long a request may wait for its response.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithErrorRevertDelay sets how long the error state lasts.
func WithErrorRevertDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.revertDelay = d
		}
	}
}

// WithObserver registers fn for state changes. Observers run on a single
// dispatch goroutine in transition order and may call back into the
// Coordinator.
func WithObserver(fn func(StateChange)) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, fn) }
}

// Coordinator turns text into speech and plays prerecorded assets, keeping
// at most one request outstanding and one source audible.
type Coordinator struct {
	mu sync.Mutex

	sender  Sender
	decoder Decoder
	fetcher Fetcher
	log     *log.Logger

	requestTimeout time.Duration
	revertDelay    time.Duration

	sm       *stateMachine
	requests *correlator
	guard    timeoutGuard
	res      resources
	cache    *cache.AudioCache
	lastErr  error

	// epoch is bumped by every halt; async work started under an older
	// epoch is discarded when it completes.
	epoch      uint64
	cancelWork context.CancelFunc

	revert    *time.Timer
	revertSeq uint64

	observers []func(StateChange)
	pending   []StateChange
	wake      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closed    bool
}

// NewCoordinator creates an idle coordinator sending requests via sender.
// The audio engine is not created until the first playback.
func NewCoordinator(sender Sender, opts ...Option) *Coordinator {
	c := &Coordinator{
		sender:         sender,
		decoder:        audio.NewDecoder(),
		fetcher:        NewHTTPFetcher(nil),
		log:            log.Default().WithPrefix("tts"),
		requestTimeout: DefaultRequestTimeout,
		revertDelay:    DefaultErrorRevertDelay,
		sm:             newStateMachine(),
		requests:       newCorrelator(),
		cache:          cache.NewAudioCache(),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
	c.res.factory = func() (audio.Engine, error) {
		return audio.NewEngine(audio.EngineAuto, audio.DefaultEngineOptions())
	}

	for _, opt := range opts {
		opt(c)
	}
	c.res.log = c.log

	c.wg.Add(1)
	go c.dispatch()

	return c
}

// State returns the current playback state.
func (c *Coordinator) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sm.Current()
}

// LastError returns the most recent failure, or nil.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Stats returns cache counters and the number of unanswered requests.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Text:            c.cache.Stats(cache.LevelText),
		URL:             c.cache.Stats(cache.LevelURL),
		PendingRequests: c.requests.pending(),
	}
}

// Speak stops any current activity and requests synthesis of text.
// Whitespace-only text is ignored.
func (c *Coordinator) Speak(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.Warn("Ignoring speak", "err", ErrClosed)
		return
	}
	c.stopLocked()
	id := c.requests.begin(text)
	c.guard.arm(id, c.requestTimeout, c.onTimeout)
	c.setStateLocked(StateLoading)
	c.mu.Unlock()

	c.log.Debug("Requesting synthesis", "requestId", id, "chars", len(trimmed))

	// Sent without the lock so a synchronous reply can re-enter.
	if err := c.sender.Send(protocol.NewTTSRequest(id, trimmed)); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.requests.awaiting(id) {
			return
		}
		c.guard.cancel()
		c.requests.clear()
		c.failLocked(newPlaybackError("speak", id, ErrSend, err))
	}
}

// Stop halts playback and abandons any outstanding request. It is a no-op
// when idle and leaves the error state untouched.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// HandleResponse delivers a synthesis response. Responses for anything
// other than the outstanding request are dropped.
func (c *Coordinator) HandleResponse(msg protocol.TTSResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.log.Debug("Ignoring response", "requestId", msg.RequestID, "err", ErrClosed)
		return
	}

	text, ok := c.requests.consume(msg.RequestID)
	if !ok {
		c.log.Debug("Dropping stale response", "requestId", msg.RequestID)
		return
	}
	c.guard.cancel()

	if msg.Error != "" {
		c.requests.clear()
		c.failLocked(newPlaybackError("synthesize", msg.RequestID, ErrSynthesis, errors.New(msg.Error)))
		return
	}

	if buf, hit := c.cache.GetText(text); hit {
		c.log.Debug("Cache hit", "level", cache.LevelText, "requestId", msg.RequestID)
		c.playLocked(buf)
		return
	}

	data, err := base64.StdEncoding.DecodeString(msg.Audio)
	if err == nil && len(data) == 0 {
		err = audio.ErrEmptyAudio
	}
	if err != nil {
		c.requests.clear()
		c.failLocked(newPlaybackError("decode", msg.RequestID, ErrDecode, err))
		return
	}

	ctx := c.beginWorkLocked(context.Background())
	go c.decodeResponse(ctx, c.epoch, msg.RequestID, text, data)
}

func (c *Coordinator) decodeResponse(ctx context.Context, epoch uint64, id, text string, data []byte) {
	buf, err := c.decoder.Decode(ctx, data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.cache.PutText(text, buf)
	}
	if c.closed || c.epoch != epoch {
		c.log.Debug("Discarding superseded decode", "requestId", id)
		return
	}
	c.endWorkLocked()

	if err != nil {
		c.requests.clear()
		c.failLocked(newPlaybackError("decode", id, ErrDecode, err))
		return
	}
	c.playLocked(buf)
}

// PlayPrerecordedAudio stops current activity and plays the asset at
// location, fetching and decoding it unless it is cached. It returns once
// playback has started, failed, or been superseded. An empty location is
// ignored.
func (c *Coordinator) PlayPrerecordedAudio(ctx context.Context, location string) {
	if location == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.Warn("Ignoring prerecorded audio", "url", location, "err", ErrClosed)
		return
	}
	c.stopLocked()

	if buf, ok := c.cache.GetURL(location); ok {
		c.log.Debug("Cache hit", "level", cache.LevelURL, "url", location)
		c.playLocked(buf)
		c.mu.Unlock()
		return
	}

	c.setStateLocked(StateLoading)
	workCtx := c.beginWorkLocked(ctx)
	epoch := c.epoch
	c.mu.Unlock()

	var (
		buf *audio.Buffer
		err error
	)
	data, fetchErr := c.fetcher.Fetch(workCtx, location)
	if fetchErr == nil {
		buf, err = c.decoder.Decode(workCtx, data)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if fetchErr == nil && err == nil {
		c.cache.PutURL(location, buf)
	}
	if c.closed || c.epoch != epoch {
		c.log.Debug("Discarding superseded asset", "url", location)
		return
	}
	c.endWorkLocked()

	failed := fetchErr != nil || err != nil
	switch {
	case failed && ctx.Err() != nil:
		c.log.Debug("Prerecorded playback canceled", "url", location)
		c.setStateLocked(StateIdle)
	case fetchErr != nil:
		c.failLocked(newPlaybackError("fetch", "", ErrFetch, fmt.Errorf("%s: %w", location, fetchErr)))
	case err != nil:
		c.failLocked(newPlaybackError("decode", "", ErrDecode, err))
	default:
		c.playLocked(buf)
	}
}

// Close stops playback, releases the engine and stops observer delivery.
// Pending notifications are flushed before Close returns.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.stopLocked()
	c.cancelRevertLocked()
	c.closed = true
	err := c.res.close()
	c.mu.Unlock()

	close(c.done)
	c.wg.Wait()
	c.flush()

	return err
}

// stopLocked halts everything and returns a busy coordinator to idle.
func (c *Coordinator) stopLocked() {
	c.haltLocked()
	switch c.sm.Current() {
	case StateLoading, StatePlaying:
		c.setStateLocked(StateIdle)
	}
}

// haltLocked stops the active source, abandons outstanding work and
// invalidates every pending continuation. It does not change state.
func (c *Coordinator) haltLocked() {
	c.epoch++
	c.endWorkLocked()
	c.res.halt()
	c.guard.cancel()
	c.requests.clear()
}

func (c *Coordinator) beginWorkLocked(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c.cancelWork = cancel
	return ctx
}

func (c *Coordinator) endWorkLocked() {
	if c.cancelWork != nil {
		c.cancelWork()
		c.cancelWork = nil
	}
}

// playLocked makes buf the single active source.
func (c *Coordinator) playLocked(buf *audio.Buffer) {
	engine, err := c.res.acquire()
	if err != nil {
		c.haltLocked()
		c.failLocked(newPlaybackError("play", "", ErrEngineInit, err))
		return
	}
	if err := engine.Resume(); err != nil {
		c.haltLocked()
		c.failLocked(newPlaybackError("play", "", ErrPlayback, err))
		return
	}

	c.haltLocked()
	if err := c.res.start(engine, buf, c.onSourceEnded); err != nil {
		c.failLocked(newPlaybackError("play", "", ErrPlayback, err))
		return
	}

	c.log.Debug("Playback started", "duration", buf.Duration())
	c.setStateLocked(StatePlaying)
}

func (c *Coordinator) onSourceEnded(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.res.isActive(seq) {
		c.log.Debug("Ignoring completion of replaced source", "source", seq)
		return
	}
	c.res.release()
	c.requests.clear()
	c.setStateLocked(StateIdle)
}

func (c *Coordinator) onTimeout(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.guard.fired(id)
	if c.closed || !c.requests.awaiting(id) {
		return
	}
	c.requests.clear()
	c.failLocked(newPlaybackError("await", id, ErrTimeout, fmt.Errorf("no response after %v", c.requestTimeout)))
}

// failLocked enters the error state and (re)schedules the revert to idle.
func (c *Coordinator) failLocked(err *PlaybackError) {
	c.lastErr = err
	c.log.Error("Playback failed", "op", err.Op, "requestId", err.RequestID, "error", err.Err)

	c.setStateLocked(StateError)
	if c.sm.Current() != StateError {
		return
	}

	c.cancelRevertLocked()
	seq := c.revertSeq
	c.revert = time.AfterFunc(c.revertDelay, func() { c.onRevert(seq) })
}

func (c *Coordinator) cancelRevertLocked() {
	if c.revert != nil {
		c.revert.Stop()
		c.revert = nil
	}
	c.revertSeq++
}

func (c *Coordinator) onRevert(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || seq != c.revertSeq {
		return
	}
	c.revert = nil
	c.setStateLocked(StateIdle)
}

func (c *Coordinator) setStateLocked(to PlaybackState) {
	from := c.sm.Current()
	if from == to {
		return
	}
	if !c.sm.Transition(to) {
		c.log.Warn("Rejected state transition", "from", from, "to", to)
		return
	}
	if from == StateError {
		c.cancelRevertLocked()
	}

	c.log.Debug("State changed", "from", from, "to", to)
	if len(c.observers) == 0 {
		return
	}
	c.pending = append(c.pending, StateChange{From: from, To: to, At: time.Now()})
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Coordinator) dispatch() {
	defer c.wg.Done()
	for {
		select {
		case <-c.wake:
			c.flush()
		case <-c.done:
			return
		}
	}
}

// flush delivers queued changes outside the lock.
func (c *Coordinator) flush() {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, change := range batch {
		for _, fn := range c.observers {
			fn(change)
		}
	}
}
