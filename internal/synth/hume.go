package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultHumeURL is the Hume TTS endpoint.
const DefaultHumeURL = "https://api.hume.ai/v0/tts"

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// HumeClient calls the Hume text-to-speech API.
type HumeClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *log.Logger
}

// HumeOption configures a HumeClient.
type HumeOption func(*HumeClient)

func WithBaseURL(u string) HumeOption {
	return func(c *HumeClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) HumeOption {
	return func(c *HumeClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l *log.Logger) HumeOption {
	return func(c *HumeClient) { c.log = l }
}

type humeVoice struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
}

type humeUtterance struct {
	Text  string     `json:"text"`
	Voice *humeVoice `json:"voice,omitempty"`
}

type humeRequest struct {
	Version    string          `json:"version"`
	Utterances []humeUtterance `json:"utterances"`
}

type humeResponse struct {
	Generations []struct {
		Audio    string  `json:"audio"`
		Duration float64 `json:"duration"`
	} `json:"generations"`
}

// NewHumeClient returns a client authenticating with apiKey.
func NewHumeClient(apiKey string, opts ...HumeOption) (*HumeClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &HumeClient{
		apiKey:     apiKey,
		baseURL:    DefaultHumeURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.Default().WithPrefix("hume"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// voiceSpec selects a voice by id when voice looks like a UUID and by
// library name otherwise.
func voiceSpec(voice string) *humeVoice {
	voice = strings.TrimSpace(voice)
	switch {
	case voice == "":
		return nil
	case uuidPattern.MatchString(voice):
		return &humeVoice{ID: voice}
	default:
		return &humeVoice{Name: voice, Provider: "HUME_AI"}
	}
}

// Synthesize requests a single utterance and returns its audio.
func (c *HumeClient) Synthesize(ctx context.Context, text, voice string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}

	body, err := json.Marshal(humeRequest{
		Version:    "2",
		Utterances: []humeUtterance{{Text: text, Voice: voiceSpec(voice)}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hume-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("hume TTS API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out humeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Generations) == 0 || out.Generations[0].Audio == "" {
		return Result{}, ErrNoAudio
	}

	gen := out.Generations[0]
	c.log.Debug("Synthesized utterance",
		"chars", len(text),
		"audioSeconds", gen.Duration,
		"elapsed", time.Since(start))

	return Result{
		Audio:    gen.Audio,
		Duration: time.Duration(gen.Duration * float64(time.Second)),
	}, nil
}
