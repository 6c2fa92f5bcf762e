package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/dgnsrekt/speakeasy/internal/protocol"
	"github.com/dgnsrekt/speakeasy/internal/synth"
)

type stubSynth struct {
	mu     sync.Mutex
	voices []string
	err    error
}

func (s *stubSynth) Synthesize(_ context.Context, text, voice string) (synth.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = append(s.voices, voice)
	if s.err != nil {
		return synth.Result{}, s.err
	}
	return synth.Result{Audio: "audio:" + text, Duration: time.Second}, nil
}

func (s *stubSynth) lastVoice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.voices) == 0 {
		return ""
	}
	return s.voices[len(s.voices)-1]
}

func newTestServer(t *testing.T, s synth.Synthesizer, opts Options) *httptest.Server {
	t.Helper()
	opts.Logger = log.New(io.Discard)
	srv := httptest.NewServer(NewServer(s, opts).Router())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readResponse(t *testing.T, ws *websocket.Conn) protocol.TTSResponse {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	msg, err := protocol.ParseServerMessage(data)
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	return msg
}

func TestRelaySynthesizes(t *testing.T) {
	stub := &stubSynth{}
	srv := newTestServer(t, stub, Options{Voice: "Ava Song"})
	ws := dial(t, srv)

	if err := ws.WriteJSON(protocol.NewTTSRequest("r1", "hello")); err != nil {
		t.Fatal(err)
	}

	msg := readResponse(t, ws)
	if msg.RequestID != "r1" || msg.Audio != "audio:hello" || msg.Error != "" {
		t.Fatalf("unexpected response: %+v", msg)
	}
	if v := stub.lastVoice(); v != "Ava Song" {
		t.Errorf("voice = %q, want Ava Song", v)
	}
}

func TestRelayReportsProviderErrors(t *testing.T) {
	srv := newTestServer(t, &stubSynth{err: errors.New("hume TTS API error (500): boom")}, Options{})
	ws := dial(t, srv)

	_ = ws.WriteJSON(protocol.NewTTSRequest("r1", "hello"))

	msg := readResponse(t, ws)
	if msg.RequestID != "r1" || msg.Audio != "" || !strings.Contains(msg.Error, "boom") {
		t.Fatalf("unexpected response: %+v", msg)
	}
}

func TestRelayRejectsMalformedFrames(t *testing.T) {
	srv := newTestServer(t, &stubSynth{}, Options{})
	ws := dial(t, srv)

	_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"TTS_REQUEST","requestId":"r9"}`))

	msg := readResponse(t, ws)
	if msg.RequestID != "r9" || msg.Error == "" {
		t.Fatalf("unexpected response: %+v", msg)
	}
}

func TestRelayRateLimits(t *testing.T) {
	srv := newTestServer(t, &stubSynth{}, Options{RateLimit: 0.001, Burst: 1})
	ws := dial(t, srv)

	_ = ws.WriteJSON(protocol.NewTTSRequest("r1", "one"))
	_ = ws.WriteJSON(protocol.NewTTSRequest("r2", "two"))

	got := map[string]protocol.TTSResponse{}
	for i := 0; i < 2; i++ {
		msg := readResponse(t, ws)
		got[msg.RequestID] = msg
	}

	if got["r1"].Audio == "" {
		t.Errorf("first request not served: %+v", got["r1"])
	}
	if got["r2"].Error != errRateLimited.Error() {
		t.Errorf("second request error = %q, want rate limit", got["r2"].Error)
	}
}

func TestRelayHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubSynth{}, Options{})
	ws := dial(t, srv)
	_ = ws.WriteJSON(protocol.NewTTSRequest("r1", "hello"))
	readResponse(t, ws)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `speakeasy_tts_requests_total{outcome="ok"} 1`) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
}

func TestRelayReconfigure(t *testing.T) {
	stub := &stubSynth{}
	s := NewServer(stub, Options{Voice: "old", Logger: log.New(io.Discard)})
	s.Reconfigure("new", 10, 10, time.Second)

	voice, timeout := s.settings()
	if voice != "new" || timeout != time.Second {
		t.Errorf("settings() = %q, %v", voice, timeout)
	}
	if l := s.newLimiter(); l.Burst() != 10 {
		t.Errorf("limiter burst = %d, want 10", l.Burst())
	}
}
