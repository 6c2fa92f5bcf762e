package tts

import (
	"testing"
	"time"
)

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		from  PlaybackState
		to    PlaybackState
		valid bool
	}{
		{StateIdle, StateLoading, true},
		{StateIdle, StatePlaying, true},
		{StateIdle, StateError, true},
		{StateLoading, StatePlaying, true},
		{StateLoading, StateError, true},
		{StateLoading, StateIdle, true},
		{StatePlaying, StateIdle, true},
		{StatePlaying, StateLoading, false},
		{StatePlaying, StateError, false},
		{StateError, StateIdle, true},
		{StateError, StateLoading, true},
		{StateError, StatePlaying, true},
		{StateIdle, StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			sm := newStateMachine()
			sm.current = tt.from

			if got := sm.Transition(tt.to); got != tt.valid {
				t.Errorf("Transition() = %v, want %v", got, tt.valid)
			}
			want := tt.from
			if tt.valid {
				want = tt.to
			}
			if sm.Current() != want {
				t.Errorf("Current() = %v, want %v", sm.Current(), want)
			}
		})
	}
}

func TestPlaybackStateString(t *testing.T) {
	tests := map[PlaybackState]string{
		StateIdle:         "idle",
		StateLoading:      "loading",
		StatePlaying:      "playing",
		StateError:        "error",
		PlaybackState(42): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestCorrelator(t *testing.T) {
	c := newCorrelator()
	n := 0
	c.newID = func() string {
		n++
		return []string{"", "a", "b"}[n]
	}

	a := c.begin("first")
	b := c.begin("second")

	if c.awaiting(a) {
		t.Error("superseded id still awaited")
	}
	if c.pending() != 1 {
		t.Errorf("pending() = %d, want 1", c.pending())
	}
	if _, ok := c.consume(a); ok {
		t.Error("consumed superseded id")
	}

	text, ok := c.consume(b)
	if !ok || text != "second" {
		t.Errorf("consume(b) = %q, %v", text, ok)
	}
	if _, ok := c.consume(b); ok {
		t.Error("consumed the same id twice")
	}
	if _, ok := c.consume(""); ok {
		t.Error("consumed empty id")
	}
	if c.pending() != 0 {
		t.Errorf("pending() = %d, want 0", c.pending())
	}
}

func TestTimeoutGuard(t *testing.T) {
	var g timeoutGuard
	fired := make(chan string, 1)

	g.arm("a", time.Hour, func(id string) { fired <- id })
	g.arm("b", time.Millisecond, func(id string) { fired <- id })
	if !g.armed() {
		t.Fatal("guard not armed")
	}

	if got := <-fired; got != "b" {
		t.Errorf("fired for %q, want b", got)
	}
	g.fired("a")
	if !g.armed() {
		t.Error("stale fire disarmed the guard")
	}
	g.fired("b")
	if g.armed() {
		t.Error("guard still armed")
	}
}
