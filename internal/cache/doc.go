// Package cache provides the unbounded in-memory stores that keep decoded
// audio for repeated phrases and prerecorded assets.
package cache
