package audio

import "time"

// Audio format constants for decoded buffers.
const (
	// BitDepth is the bit depth of every decoded sample.
	BitDepth = 16
	// BytesPerSample is the number of bytes per sample per channel.
	BytesPerSample = BitDepth / 8
)

// Buffer holds decoded signed 16-bit little-endian PCM ready for playback.
type Buffer struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.PCM) / (b.Channels * BytesPerSample)
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Size returns the size of the PCM payload in bytes.
func (b *Buffer) Size() int {
	if b == nil {
		return 0
	}
	return len(b.PCM)
}
