package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const providerWhisper = "whisper"

// Whisper implements Provider against an OpenAI-compatible transcription
// endpoint, such as a local whisper-server or faster-whisper instance.
type Whisper struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewWhisper creates a new Whisper STT provider.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Whisper{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "stt.whisper"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Transcribe posts the utterance as a WAV file to /v1/audio/transcriptions.
func (w *Whisper) Transcribe(ctx context.Context, pcm []byte) (*Result, error) {
	if len(pcm) == 0 {
		return nil, ErrEmptyAudio
	}

	start := time.Now()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, WrapError(providerWhisper, err)
	}
	if _, err := part.Write(EncodeWAV(pcm, w.config.SampleRate)); err != nil {
		return nil, WrapError(providerWhisper, err)
	}
	form.WriteField("model", w.config.Model)
	if w.config.Language != "" {
		form.WriteField("language", w.config.Language)
	}
	form.WriteField("response_format", "json")
	if err := form.Close(); err != nil {
		return nil, WrapError(providerWhisper, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, WrapError(providerWhisper, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if w.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.config.APIKey)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, WrapError(providerWhisper, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(errText)),
			Provider:   providerWhisper,
		}
	}

	var payload struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	language := payload.Language
	if language == "" {
		language = w.config.Language
	}

	return &Result{
		Text:          strings.TrimSpace(payload.Text),
		Language:      language,
		AudioDuration: pcmDuration(len(pcm), w.config.SampleRate),
		LatencyMs:     time.Since(start).Milliseconds(),
	}, nil
}

// Health checks server connectivity.
func (w *Whisper) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/health", nil)
	if err != nil {
		return WrapError(providerWhisper, err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &APIError{StatusCode: resp.StatusCode, Provider: providerWhisper}
	}
	return nil
}

// Close releases resources.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// pcmDuration returns the play time of PCM16 mono audio.
func pcmDuration(bytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := bytes / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

var _ Provider = (*Whisper)(nil)
