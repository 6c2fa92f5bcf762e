package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupportedChannels is returned when a channel layout cannot be mixed.
var ErrUnsupportedChannels = errors.New("unsupported channel conversion")

// ValidatePCM checks that pcm is non-empty and aligned to whole frames.
func ValidatePCM(pcm []byte, channels int) error {
	if len(pcm) == 0 {
		return ErrEmptyAudio
	}
	if channels <= 0 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	frame := channels * BytesPerSample
	if len(pcm)%frame != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte frames", len(pcm), frame)
	}
	return nil
}

// Convert returns buf rendered at the given sample rate and channel count.
// The input buffer is returned unchanged when it already matches.
func Convert(buf *Buffer, sampleRate, channels int) (*Buffer, error) {
	if buf == nil {
		return nil, ErrEmptyAudio
	}
	if err := ValidatePCM(buf.PCM, buf.Channels); err != nil {
		return nil, err
	}
	if buf.SampleRate == sampleRate && buf.Channels == channels {
		return buf, nil
	}
	if sampleRate <= 0 || buf.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate conversion %d -> %d", buf.SampleRate, sampleRate)
	}

	samples := decodeSamples(buf.PCM)
	mixed, err := remix(samples, buf.Channels, channels)
	if err != nil {
		return nil, err
	}
	resampled := resample(mixed, channels, buf.SampleRate, sampleRate)

	return &Buffer{
		PCM:        encodeSamples(resampled),
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

func decodeSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/BytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*BytesPerSample:]))
	}
	return out
}

func encodeSamples(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(s))
	}
	return out
}

// remix converts interleaved samples between channel layouts. Downmixing
// to mono averages all channels; upmixing from mono duplicates the sample.
func remix(samples []int16, from, to int) ([]int16, error) {
	if from == to {
		return samples, nil
	}
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrUnsupportedChannels, from, to)
	}

	frames := len(samples) / from
	out := make([]int16, frames*to)

	switch {
	case to == 1:
		for f := 0; f < frames; f++ {
			var sum int
			for ch := 0; ch < from; ch++ {
				sum += int(samples[f*from+ch])
			}
			out[f] = int16(sum / from)
		}
	case from == 1:
		for f := 0; f < frames; f++ {
			for ch := 0; ch < to; ch++ {
				out[f*to+ch] = samples[f]
			}
		}
	default:
		return nil, fmt.Errorf("%w: %d -> %d", ErrUnsupportedChannels, from, to)
	}

	return out, nil
}

// resample performs linear interpolation between neighbouring frames.
func resample(samples []int16, channels, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}

	frames := len(samples) / channels
	outFrames := int(int64(frames) * int64(to) / int64(from))
	out := make([]int16, outFrames*channels)
	ratio := float64(from) / float64(to)

	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		i0 := int(pos)
		if i0 >= frames {
			i0 = frames - 1
		}
		i1 := i0 + 1
		if i1 >= frames {
			i1 = frames - 1
		}
		frac := pos - float64(i0)

		for ch := 0; ch < channels; ch++ {
			a := float64(samples[i0*channels+ch])
			b := float64(samples[i1*channels+ch])
			out[i*channels+ch] = int16(a + (b-a)*frac)
		}
	}

	return out
}
