package tts

import "time"

// timeoutGuard fails a request that never receives a response. At most one
// guard timer is armed at a time.
type timeoutGuard struct {
	timer     *time.Timer
	requestID string
}

// arm replaces any pending guard with one for id.
func (g *timeoutGuard) arm(id string, d time.Duration, fire func(id string)) {
	g.cancel()
	g.requestID = id
	g.timer = time.AfterFunc(d, func() { fire(id) })
}

func (g *timeoutGuard) cancel() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.requestID = ""
}

// fired clears the guard if it still belongs to id.
func (g *timeoutGuard) fired(id string) {
	if g.requestID == id {
		g.timer = nil
		g.requestID = ""
	}
}

func (g *timeoutGuard) armed() bool {
	return g.timer != nil
}
