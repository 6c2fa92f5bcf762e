package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseClientMessageRequest(t *testing.T) {
	raw := []byte(`{"type":"TTS_REQUEST","text":"Hello","requestId":"tts-1-abc"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if msg.Text != "Hello" || msg.RequestID != "tts-1-abc" {
		t.Fatalf("unexpected request: %+v", msg)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageKeepsIDOnInvalid(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"TTS_REQUEST","requestId":"r1"}`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("error = %v, want ErrInvalidMessage", err)
	}
	if msg.RequestID != "r1" {
		t.Fatalf("requestId = %q, want r1", msg.RequestID)
	}
}

func TestParseClientMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestParseServerMessage(t *testing.T) {
	msg, err := ParseServerMessage([]byte(`{"type":"TTS_RESPONSE","requestId":"r1","error":"boom"}`))
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	if msg.Error != "boom" || msg.Audio != "" {
		t.Fatalf("unexpected response: %+v", msg)
	}

	if _, err := ParseServerMessage([]byte(`{"type":"TTS_RESPONSE","audio":"AAA="}`)); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("error = %v, want ErrInvalidMessage", err)
	}
}

func TestResponseOmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(NewAudioResponse("r1", "AAA="))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := string(raw); got != `{"type":"TTS_RESPONSE","requestId":"r1","audio":"AAA="}` {
		t.Fatalf("json = %s", got)
	}
}
