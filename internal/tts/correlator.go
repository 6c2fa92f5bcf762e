package tts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// correlator tracks the single outstanding synthesis request and the text
// it was issued for. Only the latest id is ever accepted, and only once.
type correlator struct {
	current  string
	consumed bool
	texts    map[string]string
	newID    func() string
}

func newCorrelator() *correlator {
	return &correlator{
		texts: make(map[string]string),
		newID: newRequestID,
	}
}

// newRequestID returns ids shaped like tts-<unix millis>-<7 chars>.
func newRequestID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("tts-%d-%s", time.Now().UnixMilli(), suffix)
}

// begin supersedes any outstanding request and records a new one.
func (c *correlator) begin(text string) string {
	c.clear()
	id := c.newID()
	c.current = id
	c.texts[id] = text
	return id
}

// awaiting reports whether id is outstanding and unanswered.
func (c *correlator) awaiting(id string) bool {
	return id != "" && id == c.current && !c.consumed
}

// consume accepts the first response for the outstanding id and returns
// the originating text.
func (c *correlator) consume(id string) (string, bool) {
	if !c.awaiting(id) {
		return "", false
	}
	text := c.texts[id]
	delete(c.texts, id)
	c.consumed = true
	return text, true
}

// clear forgets the outstanding request.
func (c *correlator) clear() {
	if c.current != "" {
		delete(c.texts, c.current)
	}
	c.current = ""
	c.consumed = false
}

func (c *correlator) pending() int {
	return len(c.texts)
}
