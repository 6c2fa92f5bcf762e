package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeTTSRequest  MessageType = "TTS_REQUEST"
	TypeTTSResponse MessageType = "TTS_RESPONSE"
)

var (
	ErrUnsupportedType = errors.New("unsupported message type")
	ErrInvalidMessage  = errors.New("invalid message")
)

type Envelope struct {
	Type MessageType `json:"type"`
}

// TTSRequest asks the relay to synthesize Text. RequestID is echoed back
// on the matching TTSResponse.
type TTSRequest struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	RequestID string      `json:"requestId"`
}

// TTSResponse carries base64 encoded audio or an error, never both.
type TTSResponse struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId"`
	Audio     string      `json:"audio,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func NewTTSRequest(requestID, text string) TTSRequest {
	return TTSRequest{Type: TypeTTSRequest, Text: text, RequestID: requestID}
}

func NewAudioResponse(requestID, audio string) TTSResponse {
	return TTSResponse{Type: TypeTTSResponse, RequestID: requestID, Audio: audio}
}

func NewErrorResponse(requestID, detail string) TTSResponse {
	return TTSResponse{Type: TypeTTSResponse, RequestID: requestID, Error: detail}
}

// ParseClientMessage decodes a frame sent to the relay. On validation
// failure the partially decoded request is returned alongside the error
// so the caller can still address a reply.
func ParseClientMessage(raw []byte) (TTSRequest, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return TTSRequest{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type != TypeTTSRequest {
		return TTSRequest{}, ErrUnsupportedType
	}

	var msg TTSRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		return TTSRequest{}, err
	}
	if msg.RequestID == "" {
		return msg, fmt.Errorf("%w: missing requestId", ErrInvalidMessage)
	}
	if msg.Text == "" {
		return msg, fmt.Errorf("%w: missing text", ErrInvalidMessage)
	}
	return msg, nil
}

// ParseServerMessage decodes a frame sent by the relay.
func ParseServerMessage(raw []byte) (TTSResponse, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return TTSResponse{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type != TypeTTSResponse {
		return TTSResponse{}, ErrUnsupportedType
	}

	var msg TTSResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		return TTSResponse{}, err
	}
	if msg.RequestID == "" {
		return msg, fmt.Errorf("%w: missing requestId", ErrInvalidMessage)
	}
	return msg, nil
}
