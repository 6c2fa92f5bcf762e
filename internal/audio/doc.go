// Package audio provides decoded PCM buffers, WAV/MP3 decoding and the
// single-source playback engines (oto/v3 backed and mock) used by the
// speech coordinator.
package audio
