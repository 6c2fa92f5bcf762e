package audio

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrEngineClosed is returned by engines used after Close.
var ErrEngineClosed = errors.New("audio engine closed")

// Engine is the platform audio output. Only one engine is created per
// coordinator and it is reused across every playback.
type Engine interface {
	// Resume wakes a suspended output device before playback starts.
	Resume() error

	// Start begins playing buf from the beginning. onEnded is invoked once
	// when playback completes naturally; it is never invoked synchronously
	// from Start and never after the source has been stopped by the caller.
	Start(buf *Buffer, onEnded func()) (Source, error)

	// Close releases the output device.
	Close() error
}

// Source is a single in-flight playback.
type Source interface {
	// Stop halts playback. It is safe to call more than once.
	Stop() error
}

// EngineKind selects the engine implementation.
type EngineKind string

const (
	// EngineAuto picks the mock engine in CI and oto everywhere else.
	EngineAuto EngineKind = "auto"
	// EngineOto plays through the system audio device.
	EngineOto EngineKind = "oto"
	// EngineMock simulates playback without producing sound.
	EngineMock EngineKind = "mock"
)

// ParseEngineKind parses an engine name from configuration.
func ParseEngineKind(s string) (EngineKind, error) {
	switch k := EngineKind(strings.ToLower(strings.TrimSpace(s))); k {
	case EngineAuto, EngineOto, EngineMock:
		return k, nil
	case "":
		return EngineAuto, nil
	default:
		return "", fmt.Errorf("unknown audio engine %q (want auto, oto or mock)", s)
	}
}

// EngineOptions configures engine output.
type EngineOptions struct {
	SampleRate int
	Channels   int
	Volume     float64
	Logger     *log.Logger
}

// DefaultEngineOptions returns 48kHz stereo output at full volume.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		SampleRate: 48000,
		Channels:   2,
		Volume:     1.0,
	}
}

// NewEngine creates the engine selected by kind.
func NewEngine(kind EngineKind, opts EngineOptions) (Engine, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default().WithPrefix("audio")
	}

	switch kind {
	case EngineMock:
		return NewMockEngine(), nil
	case EngineOto:
		return newOtoEngine(opts)
	case EngineAuto, "":
		if IsCI() {
			opts.Logger.Info("Using mock audio engine", "reason", "ci")
			return NewMockEngine(), nil
		}
		return newOtoEngine(opts)
	default:
		return nil, fmt.Errorf("unknown audio engine %q", kind)
	}
}

func newOtoEngine(opts EngineOptions) (Engine, error) {
	e, err := NewOtoEngine(opts)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// clampVolume limits v to [0, 1]. Zero mutes.
func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// IsCI reports whether we are running somewhere without an audio device
// or mock audio was requested explicitly.
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"BUILDKITE",
		"DRONE",
	}

	for _, v := range ciVars {
		if val := os.Getenv(v); val != "" && val != "false" {
			return true
		}
	}

	return os.Getenv("SPEAKEASY_MOCK_AUDIO") == "true"
}
