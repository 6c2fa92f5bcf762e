package audio

import (
	"sync"
	"time"
)

// MockEngine implements Engine without producing sound. In manual mode
// sources only complete when the test calls Finish; otherwise they
// complete after the buffer's duration.
type MockEngine struct {
	mu sync.Mutex

	manual    bool
	startErr  error
	resumeErr error

	sources []*MockSource
	resumes int
	closed  bool
}

// NewMockEngine returns a mock engine whose sources finish on their own.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// NewManualMockEngine returns a mock engine whose sources finish only
// when Finish is called.
func NewManualMockEngine() *MockEngine {
	return &MockEngine{manual: true}
}

// FailStart makes subsequent Start calls return err.
func (m *MockEngine) FailStart(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// FailResume makes subsequent Resume calls return err.
func (m *MockEngine) FailResume(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeErr = err
}

func (m *MockEngine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrEngineClosed
	}
	m.resumes++
	return m.resumeErr
}

func (m *MockEngine) Start(buf *Buffer, onEnded func()) (Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrEngineClosed
	}
	if m.startErr != nil {
		return nil, m.startErr
	}
	if buf == nil {
		return nil, ErrEmptyAudio
	}
	if err := ValidatePCM(buf.PCM, buf.Channels); err != nil {
		return nil, err
	}

	src := &MockSource{Buffer: buf, onEnded: onEnded}
	if !m.manual {
		src.timer = time.AfterFunc(buf.Duration(), src.Finish)
	}
	m.sources = append(m.sources, src)

	return src, nil
}

func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockEngine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Starts returns how many sources were started.
func (m *MockEngine) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Resumes returns how many times Resume was called.
func (m *MockEngine) Resumes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumes
}

// Sources returns every source started so far.
func (m *MockEngine) Sources() []*MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockSource, len(m.sources))
	copy(out, m.sources)
	return out
}

// Last returns the most recently started source, or nil.
func (m *MockEngine) Last() *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sources) == 0 {
		return nil
	}
	return m.sources[len(m.sources)-1]
}

// MockSource is a simulated playback.
type MockSource struct {
	Buffer *Buffer

	mu      sync.Mutex
	onEnded func()
	timer   *time.Timer
	stopped bool
	ended   bool
	stops   int
}

func (s *MockSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.stopped = true
	return nil
}

// Finish simulates playback reaching the end. It does nothing once the
// source has been stopped or has already finished.
func (s *MockSource) Finish() {
	s.mu.Lock()
	if s.stopped || s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	cb := s.onEnded
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// FireEnded invokes the completion callback unconditionally, as a
// late event from the device would.
func (s *MockSource) FireEnded() {
	s.mu.Lock()
	cb := s.onEnded
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Stopped reports whether Stop was called.
func (s *MockSource) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stops returns how many times Stop was called.
func (s *MockSource) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// Ended reports whether the source finished naturally.
func (s *MockSource) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
