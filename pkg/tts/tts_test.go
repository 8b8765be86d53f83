package tts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeServer returns a Chatterbox-shaped test server plus the audio it serves.
func fakeServer(t *testing.T, audio []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/audio/speech":
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if payload["input"] == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "audio/pcm")
			w.Write(audio)
		case "/v1/voices":
			json.NewEncoder(w).Encode(map[string]any{"voices": []string{"default", "aria"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestChatterboxSynthesize(t *testing.T) {
	audio := make([]byte, 9600) // 200ms of 24kHz mono PCM16
	server := fakeServer(t, audio)
	defer server.Close()

	provider, err := NewChatterbox(WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewChatterbox: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if len(result.Audio) != len(audio) {
		t.Errorf("audio length = %d, want %d", len(result.Audio), len(audio))
	}
	if result.Format.SampleRate != 24000 {
		t.Errorf("sample rate = %d, want 24000", result.Format.SampleRate)
	}
	if result.Duration != 200*time.Millisecond {
		t.Errorf("duration = %v, want 200ms", result.Duration)
	}
	if result.CharCount != len("hello world") {
		t.Errorf("char count = %d, want %d", result.CharCount, len("hello world"))
	}
}

func TestChatterboxSynthesizeRequestShape(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte{0, 0})
	}))
	defer server.Close()

	provider, _ := NewChatterbox(
		WithBaseURL(server.URL),
		WithVoice("aria"),
		WithModel("turbo"),
		WithExaggeration(0.8),
	)
	defer provider.Close()

	if _, err := provider.Synthesize(context.Background(), "test"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if got["input"] != "test" {
		t.Errorf("input = %v, want test", got["input"])
	}
	if got["voice"] != "aria" {
		t.Errorf("voice = %v, want aria", got["voice"])
	}
	if got["response_format"] != "pcm" {
		t.Errorf("response_format = %v, want pcm", got["response_format"])
	}
	if got["exaggeration"] != 0.8 {
		t.Errorf("exaggeration = %v, want 0.8", got["exaggeration"])
	}
}

func TestChatterboxEmptyText(t *testing.T) {
	provider, _ := NewChatterbox()
	defer provider.Close()

	if _, err := provider.Synthesize(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Synthesize(blank) error = %v, want ErrEmptyText", err)
	}
	if _, err := provider.Stream(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Stream(empty) error = %v, want ErrEmptyText", err)
	}
}

func TestChatterboxAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, _ := NewChatterbox(WithBaseURL(server.URL))
	defer provider.Close()

	_, err := provider.Synthesize(context.Background(), "hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
	if !apiErr.IsServerError() {
		t.Error("IsServerError() = false, want true")
	}
}

func TestChatterboxStream(t *testing.T) {
	audio := make([]byte, streamChunkSize*2+100)
	server := fakeServer(t, audio)
	defer server.Close()

	provider, _ := NewChatterbox(WithBaseURL(server.URL))
	defer provider.Close()

	stream, err := provider.Stream(context.Background(), "streaming test")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if stream.Format().SampleRate != 24000 {
		t.Errorf("stream sample rate = %d, want 24000", stream.Format().SampleRate)
	}

	var total int
	for {
		chunk, err := stream.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if chunk == nil {
			break
		}
		total += len(chunk)
	}

	if total != len(audio) {
		t.Errorf("streamed %d bytes, want %d", total, len(audio))
	}

	stream.Close()
	if _, err := stream.Read(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Read after Close error = %v, want ErrStreamClosed", err)
	}
}

func TestChatterboxVoices(t *testing.T) {
	server := fakeServer(t, nil)
	defer server.Close()

	provider, _ := NewChatterbox(WithBaseURL(server.URL))
	defer provider.Close()

	voices, err := provider.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	want := []string{"default", "aria"}
	if len(voices) != len(want) {
		t.Fatalf("voices = %v, want %v", voices, want)
	}
	for i := range want {
		if voices[i] != want[i] {
			t.Errorf("voices[%d] = %q, want %q", i, voices[i], want[i])
		}
	}
}

func TestChainFallback(t *testing.T) {
	failing := &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, &ProviderError{Provider: "primary", Err: io.ErrUnexpectedEOF}
		},
	}
	working := &Mock{}

	chain, err := NewChain(failing, working)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}

	result, err := chain.Synthesize(context.Background(), "fallback please")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(result.Audio) == 0 {
		t.Error("fallback result has no audio")
	}
	if texts := working.Texts(); len(texts) != 1 || texts[0] != "fallback please" {
		t.Errorf("fallback texts = %v", texts)
	}
}

func TestChainAllFail(t *testing.T) {
	boom := func(ctx context.Context, text string) (*AudioResult, error) {
		return nil, errors.New("down")
	}
	chain, _ := NewChain(&Mock{SynthesizeFunc: boom}, &Mock{SynthesizeFunc: boom})

	_, err := chain.Synthesize(context.Background(), "hello")
	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("error = %v, want *ChainError", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("recorded %d errors, want 2", len(chainErr.Errors))
	}
}

func TestChainRequiresProvider(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("NewChain() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestMemStream(t *testing.T) {
	stream := NewMemStream(PCMFormat(24000), []byte{1, 2}, []byte{3})

	first, _ := stream.Read()
	second, _ := stream.Read()
	done, _ := stream.Read()

	if len(first) != 2 || len(second) != 1 || done != nil {
		t.Errorf("chunks = %v %v %v", first, second, done)
	}
}
