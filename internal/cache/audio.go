package cache

import (
	"strings"

	"github.com/dgnsrekt/speakeasy/internal/audio"
)

// NormalizeText returns the text-cache key for s. Lookups are insensitive
// to surrounding whitespace and case.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AudioCache pairs the text-keyed and URL-keyed buffer caches.
type AudioCache struct {
	text *MemoryCache[*audio.Buffer]
	urls *MemoryCache[*audio.Buffer]
}

// NewAudioCache creates both caches empty.
func NewAudioCache() *AudioCache {
	size := func(b *audio.Buffer) int64 { return int64(b.Size()) }
	return &AudioCache{
		text: NewMemoryCache(size),
		urls: NewMemoryCache(size),
	}
}

// GetText looks up speech previously synthesized for text.
func (c *AudioCache) GetText(text string) (*audio.Buffer, bool) {
	return c.text.Get(NormalizeText(text))
}

// PutText stores buf for text.
func (c *AudioCache) PutText(text string, buf *audio.Buffer) {
	c.text.Put(NormalizeText(text), buf)
}

// GetURL looks up a prerecorded asset. URLs are matched exactly.
func (c *AudioCache) GetURL(url string) (*audio.Buffer, bool) {
	return c.urls.Get(url)
}

// PutURL stores buf for url.
func (c *AudioCache) PutURL(url string, buf *audio.Buffer) {
	c.urls.Put(url, buf)
}

// Stats returns the counters for level.
func (c *AudioCache) Stats(level Level) Stats {
	if level == LevelURL {
		return c.urls.Stats()
	}
	return c.text.Stats()
}
