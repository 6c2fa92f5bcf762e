package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// Decoding errors.
var (
	ErrEmptyAudio        = errors.New("empty audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidWAV        = errors.New("invalid WAV data")
)

// Format identifies an encoded audio container.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// mp3 output is always 16-bit stereo.
const mp3Channels = 2

const decodeChunk = 32 * 1024

// Sniff inspects the leading bytes of data and reports its container.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Decoder turns encoded audio bytes into playable PCM buffers.
type Decoder struct{}

// NewDecoder returns a WAV/MP3 decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes data. It honours ctx cancellation between chunks.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch Sniff(data) {
	case FormatWAV:
		return decodeWAV(data)
	case FormatMP3:
		return decodeMP3(ctx, data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// decodeWAV walks the RIFF chunks looking for "fmt " and "data".
func decodeWAV(data []byte) (*Buffer, error) {
	var (
		haveFmt    bool
		channels   int
		sampleRate int
		pcm        []byte
	)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if end > len(data) || end < body {
			// Truncated trailing chunk; keep what is there.
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too short", ErrInvalidWAV)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits := int(binary.LittleEndian.Uint16(data[body+14:]))
			if audioFormat != 1 && audioFormat != 0xFFFE {
				return nil, fmt.Errorf("%w: WAV encoding %d", ErrUnsupportedFormat, audioFormat)
			}
			if bits != BitDepth {
				return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, bits)
			}
			haveFmt = true
		case "data":
			pcm = data[body:end]
		}

		// Chunks are word aligned.
		offset = body + size + size%2
		if haveFmt && pcm != nil {
			break
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrInvalidWAV)
	}
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidWAV, channels, sampleRate)
	}
	frame := channels * BytesPerSample
	pcm = pcm[:len(pcm)-len(pcm)%frame]
	if len(pcm) == 0 {
		return nil, ErrEmptyAudio
	}

	out := make([]byte, len(pcm))
	copy(out, pcm)
	return &Buffer{PCM: out, SampleRate: sampleRate, Channels: channels}, nil
}

func decodeMP3(ctx context.Context, data []byte) (*Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	var out bytes.Buffer
	if n := dec.Length(); n > 0 {
		out.Grow(int(n))
	}

	chunk := make([]byte, decodeChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := dec.Read(chunk)
		out.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode mp3 stream: %w", err)
		}
	}

	if out.Len() == 0 {
		return nil, ErrEmptyAudio
	}
	frame := mp3Channels * BytesPerSample
	pcm := out.Bytes()
	pcm = pcm[:len(pcm)-len(pcm)%frame]

	return &Buffer{PCM: pcm, SampleRate: dec.SampleRate(), Channels: mp3Channels}, nil
}
