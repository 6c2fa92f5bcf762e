package synth

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/dgnsrekt/speakeasy/internal/audio"
)

// ToneSynthesizer answers every request with a short beep per word. It
// lets the relay run without provider credentials.
type ToneSynthesizer struct {
	SampleRate int
	Frequency  float64
}

// NewToneSynthesizer returns a 440 Hz synthesizer at 24 kHz.
func NewToneSynthesizer() *ToneSynthesizer {
	return &ToneSynthesizer{SampleRate: 24000, Frequency: 440}
}

const (
	toneWord = 120 * time.Millisecond
	toneGap  = 60 * time.Millisecond
)

func (s *ToneSynthesizer) Synthesize(ctx context.Context, text, _ string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return Result{}, ErrEmptyText
	}

	beep := audio.Tone(s.Frequency, toneWord, s.SampleRate)
	gap := audio.Silence(toneGap, s.SampleRate, 1)

	pcm := make([]byte, 0, len(words)*(len(beep.PCM)+len(gap.PCM)))
	for range words {
		pcm = append(pcm, beep.PCM...)
		pcm = append(pcm, gap.PCM...)
	}
	buf := &audio.Buffer{PCM: pcm, SampleRate: s.SampleRate, Channels: 1}

	return Result{
		Audio:    base64.StdEncoding.EncodeToString(audio.EncodeWAV(buf)),
		Duration: buf.Duration(),
	}, nil
}
