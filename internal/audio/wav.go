package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// EncodeWAV wraps buf in a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(buf *Buffer) []byte {
	dataLen := len(buf.PCM)
	out := make([]byte, 44+dataLen)

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataLen))
	copy(out[8:], "WAVE")

	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(buf.Channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(buf.SampleRate*buf.Channels*BytesPerSample))
	binary.LittleEndian.PutUint16(out[32:], uint16(buf.Channels*BytesPerSample))
	binary.LittleEndian.PutUint16(out[34:], BitDepth)

	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataLen))
	copy(out[44:], buf.PCM)

	return out
}

// Tone generates a mono sine wave at freq Hz.
func Tone(freq float64, d time.Duration, sampleRate int) *Buffer {
	frames := int(d.Seconds() * float64(sampleRate))
	samples := make([]int16, frames)
	for i := range samples {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
		samples[i] = int16(v * 0.3 * math.MaxInt16)
	}
	return &Buffer{PCM: encodeSamples(samples), SampleRate: sampleRate, Channels: 1}
}

// Silence returns d worth of zeroed PCM.
func Silence(d time.Duration, sampleRate, channels int) *Buffer {
	frames := int(d.Seconds() * float64(sampleRate))
	return &Buffer{
		PCM:        make([]byte, frames*channels*BytesPerSample),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}
