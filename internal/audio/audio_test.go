package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBufferDuration(t *testing.T) {
	tests := []struct {
		name string
		buf  *Buffer
		want time.Duration
	}{
		{"nil", nil, 0},
		{"one second mono", Silence(time.Second, 16000, 1), time.Second},
		{"half second stereo", Silence(500*time.Millisecond, 48000, 2), 500 * time.Millisecond},
		{"zero rate", &Buffer{PCM: make([]byte, 4), Channels: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.buf.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSniff(t *testing.T) {
	wav := EncodeWAV(Silence(10*time.Millisecond, 8000, 1))

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"wav", wav, FormatWAV},
		{"id3", []byte("ID3\x04\x00\x00"), FormatMP3},
		{"frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3},
		{"text", []byte("hello world"), FormatUnknown},
		{"short", []byte{0x00}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.data); got != tt.want {
				t.Errorf("Sniff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeWAV(t *testing.T) {
	src := Tone(440, 100*time.Millisecond, 22050)
	buf, err := NewDecoder().Decode(context.Background(), EncodeWAV(src))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if buf.SampleRate != 22050 || buf.Channels != 1 {
		t.Errorf("format = %d Hz/%d ch, want 22050 Hz/1 ch", buf.SampleRate, buf.Channels)
	}
	if len(buf.PCM) != len(src.PCM) {
		t.Errorf("PCM length = %d, want %d", len(buf.PCM), len(src.PCM))
	}
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	src := Silence(20*time.Millisecond, 8000, 2)
	wav := EncodeWAV(src)

	// Insert a LIST chunk between fmt and data.
	list := []byte{'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0}
	withList := append(append(append([]byte{}, wav[:36]...), list...), wav[36:]...)

	buf, err := NewDecoder().Decode(context.Background(), withList)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(buf.PCM) != len(src.PCM) {
		t.Errorf("PCM length = %d, want %d", len(buf.PCM), len(src.PCM))
	}
}

func TestDecodeErrors(t *testing.T) {
	eightBit := EncodeWAV(Silence(10*time.Millisecond, 8000, 1))
	eightBit[34] = 8

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyAudio},
		{"garbage", []byte("definitely not audio"), ErrUnsupportedFormat},
		{"8-bit wav", eightBit, ErrUnsupportedFormat},
		{"no fmt", []byte("RIFF\x04\x00\x00\x00WAVE"), ErrInvalidWAV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder().Decode(context.Background(), tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDecoder().Decode(ctx, EncodeWAV(Silence(10*time.Millisecond, 8000, 1)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Decode() error = %v, want context.Canceled", err)
	}
}

func TestConvert(t *testing.T) {
	mono := Tone(220, 100*time.Millisecond, 24000)

	tests := []struct {
		name       string
		sampleRate int
		channels   int
	}{
		{"identity", 24000, 1},
		{"upmix", 24000, 2},
		{"upsample", 48000, 1},
		{"upsample and upmix", 48000, 2},
		{"downsample", 16000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Convert(mono, tt.sampleRate, tt.channels)
			if err != nil {
				t.Fatalf("Convert() error: %v", err)
			}
			if out.SampleRate != tt.sampleRate || out.Channels != tt.channels {
				t.Errorf("format = %d/%d, want %d/%d", out.SampleRate, out.Channels, tt.sampleRate, tt.channels)
			}
			if err := ValidatePCM(out.PCM, out.Channels); err != nil {
				t.Errorf("ValidatePCM() error: %v", err)
			}
			if d := out.Duration() - mono.Duration(); d > time.Millisecond || d < -time.Millisecond {
				t.Errorf("duration drift %v", d)
			}
		})
	}
}

func TestConvertDownmix(t *testing.T) {
	stereo := &Buffer{
		PCM:        encodeSamples([]int16{100, 300, -200, 200}),
		SampleRate: 8000,
		Channels:   2,
	}

	out, err := Convert(stereo, 8000, 1)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	got := decodeSamples(out.PCM)
	want := []int16{200, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestConvertUnsupportedChannels(t *testing.T) {
	quad := &Buffer{PCM: make([]byte, 16), SampleRate: 8000, Channels: 4}
	if _, err := Convert(quad, 8000, 2); !errors.Is(err, ErrUnsupportedChannels) {
		t.Errorf("Convert() error = %v, want ErrUnsupportedChannels", err)
	}
}

func TestParseEngineKind(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineKind
		wantErr bool
	}{
		{"", EngineAuto, false},
		{"auto", EngineAuto, false},
		{" OTO ", EngineOto, false},
		{"mock", EngineMock, false},
		{"pulse", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEngineKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEngineKind(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseEngineKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewEngineMock(t *testing.T) {
	e, err := NewEngine(EngineMock, DefaultEngineOptions())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	if _, ok := e.(*MockEngine); !ok {
		t.Errorf("NewEngine(mock) = %T, want *MockEngine", e)
	}
}

func TestNewEngineAutoInCI(t *testing.T) {
	t.Setenv("SPEAKEASY_MOCK_AUDIO", "true")

	e, err := NewEngine(EngineAuto, DefaultEngineOptions())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	if _, ok := e.(*MockEngine); !ok {
		t.Errorf("NewEngine(auto) = %T, want *MockEngine", e)
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{3, 1},
	}

	for _, tt := range tests {
		if got := clampVolume(tt.in); got != tt.want {
			t.Errorf("clampVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMisalignedPCMRejected(t *testing.T) {
	odd := &Buffer{PCM: make([]byte, 6), SampleRate: 8000, Channels: 2}

	if _, err := Convert(odd, 16000, 2); err == nil {
		t.Error("Convert() accepted PCM that is not frame aligned")
	}
	if _, err := NewManualMockEngine().Start(odd, nil); err == nil {
		t.Error("Start() accepted PCM that is not frame aligned")
	}
	if err := ValidatePCM(make([]byte, 8), 2); err != nil {
		t.Errorf("ValidatePCM() error: %v", err)
	}
}
