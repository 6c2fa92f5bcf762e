package cache

import "fmt"

// Level identifies which playback path a cache serves.
type Level int

const (
	// LevelText caches synthesized speech keyed by normalized text.
	LevelText Level = iota
	// LevelURL caches prerecorded assets keyed by exact URL.
	LevelURL
)

func (l Level) String() string {
	switch l {
	case LevelText:
		return "text"
	case LevelURL:
		return "url"
	default:
		return "unknown"
	}
}

// Stats holds cache performance counters.
type Stats struct {
	Size      int64 // Total payload size in bytes
	ItemCount int64
	Hits      int64
	Misses    int64
}

// HitRate returns hits as a fraction of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) String() string {
	return fmt.Sprintf("%d items, %d hits, %d misses (%.0f%%)", s.ItemCount, s.Hits, s.Misses, s.HitRate()*100)
}
