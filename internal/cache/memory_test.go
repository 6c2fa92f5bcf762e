package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/speakeasy/internal/audio"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	c := NewMemoryCache(func(v []byte) int64 { return int64(len(v)) })

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get returned a value for a missing key")
	}

	c.Put("key", []byte("value"))
	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(got) != "value" {
		t.Errorf("Retrieved value mismatch: got %s, want value", got)
	}

	c.Put("key", []byte("longer value"))
	stats := c.Stats()
	if stats.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", stats.ItemCount)
	}
	if stats.Size != int64(len("longer value")) {
		t.Errorf("Size = %d, want %d", stats.Size, len("longer value"))
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestMemoryCache_Unbounded(t *testing.T) {
	c := NewMemoryCache[int](nil)
	for i := 0; i < 10000; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}
	if c.Len() != 10000 {
		t.Errorf("Len = %d, want 10000", c.Len())
	}
	if v, ok := c.Get("k0"); !ok || v != 0 {
		t.Errorf("oldest entry evicted: %v, %v", v, ok)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache[int](nil)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("%d-%d", g, i)
				c.Put(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() != 800 {
		t.Errorf("Len = %d, want 800", c.Len())
	}
	if c.Stats().Hits != 800 {
		t.Errorf("Hits = %d, want 800", c.Stats().Hits)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello", "hello"},
		{"  hello  ", "hello"},
		{"HELLO\n", "hello"},
		{"Hello World", "hello world"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAudioCache_TextKeysNormalized(t *testing.T) {
	c := NewAudioCache()
	buf := audio.Silence(10*time.Millisecond, 8000, 1)

	c.PutText("Hello", buf)
	for _, lookup := range []string{"hello", " HELLO ", "Hello"} {
		got, ok := c.GetText(lookup)
		if !ok || got != buf {
			t.Errorf("GetText(%q) missed", lookup)
		}
	}

	if _, ok := c.GetText("hello there"); ok {
		t.Error("GetText matched different text")
	}
}

func TestAudioCache_URLKeysExact(t *testing.T) {
	c := NewAudioCache()
	buf := audio.Silence(10*time.Millisecond, 8000, 1)

	c.PutURL("https://example.com/Chime.wav", buf)
	if _, ok := c.GetURL("https://example.com/chime.wav"); ok {
		t.Error("URL lookup should be case sensitive")
	}
	if _, ok := c.GetURL("https://example.com/Chime.wav"); !ok {
		t.Error("URL lookup missed exact key")
	}

	if s := c.Stats(LevelURL); s.Hits != 1 || s.Misses != 1 || s.Size != int64(buf.Size()) {
		t.Errorf("url stats = %+v", s)
	}
	if s := c.Stats(LevelText); s.ItemCount != 0 {
		t.Errorf("text stats = %+v, want empty", s)
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelText, "text"},
		{LevelURL, "url"},
		{Level(7), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", int(tt.level), got, tt.want)
		}
	}
}
