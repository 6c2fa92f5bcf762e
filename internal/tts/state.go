package tts

import "time"

// PlaybackState is the user-visible lifecycle of a Coordinator.
type PlaybackState int

const (
	// StateIdle indicates nothing is loading or playing.
	StateIdle PlaybackState = iota
	// StateLoading indicates synthesis, fetch or decode is in progress.
	StateLoading
	// StatePlaying indicates a source is audible.
	StatePlaying
	// StateError indicates the last operation failed. It reverts to idle
	// on its own after the configured delay.
	StateError
)

// String returns the string representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StateChange is delivered to observers on every transition.
type StateChange struct {
	From PlaybackState
	To   PlaybackState
	At   time.Time
}

// stateMachine enforces the allowed playback transitions.
type stateMachine struct {
	current     PlaybackState
	transitions map[PlaybackState][]PlaybackState
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		current: StateIdle,
		transitions: map[PlaybackState][]PlaybackState{
			StateIdle:    {StateLoading, StatePlaying, StateError},
			StateLoading: {StatePlaying, StateError, StateIdle},
			StatePlaying: {StateIdle},
			StateError:   {StateIdle, StateLoading, StatePlaying},
		},
	}
}

// CanTransition reports whether to is reachable from the current state.
func (sm *stateMachine) CanTransition(to PlaybackState) bool {
	for _, s := range sm.transitions[sm.current] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves to the given state if allowed.
func (sm *stateMachine) Transition(to PlaybackState) bool {
	if !sm.CanTransition(to) {
		return false
	}
	sm.current = to
	return true
}

// Current returns the current state.
func (sm *stateMachine) Current() PlaybackState {
	return sm.current
}
