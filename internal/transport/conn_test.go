package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/dgnsrekt/speakeasy/internal/protocol"
)

// echoServer answers every request with an audio response carrying the
// request text, after first sending a malformed frame.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			req, err := protocol.ParseClientMessage(data)
			if err != nil {
				return
			}
			_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`))
			_ = ws.WriteJSON(protocol.NewAudioResponse(req.RequestID, req.Text))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnRoundTrip(t *testing.T) {
	srv := echoServer(t)
	responses := make(chan protocol.TTSResponse, 4)

	conn, err := Dial(context.Background(), wsURL(srv), func(msg protocol.TTSResponse) {
		responses <- msg
	}, WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close() //nolint:errcheck

	if err := conn.Send(protocol.NewTTSRequest("r1", "hello")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case msg := <-responses:
		if msg.RequestID != "r1" || msg.Audio != "hello" {
			t.Fatalf("unexpected response: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no response received")
	}

	select {
	case msg := <-responses:
		t.Fatalf("malformed frame delivered: %+v", msg)
	default:
	}
}

func TestConnSendAfterClose(t *testing.T) {
	srv := echoServer(t)

	conn, err := Dial(context.Background(), wsURL(srv), func(protocol.TTSResponse) {}, WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := conn.Send(protocol.NewTTSRequest("r1", "hello")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send() error = %v, want ErrClosed", err)
	}

	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit")
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Dial(ctx, "ws://127.0.0.1:1/ws", func(protocol.TTSResponse) {}); err == nil {
		t.Fatal("expected dial error")
	}
}
