// Package tts coordinates speech playback: it sends synthesis requests
// over a caller supplied channel, correlates responses, decodes and caches
// audio, and drives a single active playback through a four-state
// lifecycle (idle, loading, playing, error).
package tts
