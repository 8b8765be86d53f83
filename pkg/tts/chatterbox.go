package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const providerChatterbox = "chatterbox"

// streamChunkSize is the read granularity for streamed audio.
const streamChunkSize = 4096

// Chatterbox implements Provider against a Chatterbox-TTS-Server instance.
// The server exposes an OpenAI-compatible /v1/audio/speech endpoint plus a
// /v1/voices listing; requesting raw PCM keeps playback latency low.
type Chatterbox struct {
	config  *Config
	client  *http.Client
	stream  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewChatterbox creates a new Chatterbox TTS provider.
func NewChatterbox(opts ...Option) (*Chatterbox, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Chatterbox{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		stream:  &http.Client{Timeout: cfg.StreamTimeout},
		logger:  cfg.Logger.With("component", "tts.chatterbox"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (c *Chatterbox) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()

	resp, err := c.speak(ctx, c.client, text)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerChatterbox, fmt.Errorf("read audio: %w", err))
	}

	format := PCMFormat(c.config.SampleRate)
	return &AudioResult{
		Audio:     audio,
		Format:    format,
		Duration:  PCMDuration(len(audio), format.SampleRate),
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Stream converts text to audio, yielding chunks as the server produces them.
func (c *Chatterbox) Stream(ctx context.Context, text string) (AudioStream, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	resp, err := c.speak(ctx, c.stream, text)
	if err != nil {
		return nil, err
	}

	return &httpStream{
		body:   resp.Body,
		format: PCMFormat(c.config.SampleRate),
	}, nil
}

// speak issues the synthesis request and verifies the response status.
func (c *Chatterbox) speak(ctx context.Context, client *http.Client, text string) (*http.Response, error) {
	payload := map[string]any{
		"input":           text,
		"voice":           c.config.Voice,
		"model":           c.config.Model,
		"response_format": string(c.config.OutputFormat),
		"exaggeration":    c.config.Exaggeration,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerChatterbox, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerChatterbox, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, WrapError(providerChatterbox, err)
	}

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(errText)),
			Provider:   providerChatterbox,
		}
	}
	return resp, nil
}

// Voices returns the voice names known to the server.
func (c *Chatterbox) Voices(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, WrapError(providerChatterbox, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, WrapError(providerChatterbox, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Provider: providerChatterbox}
	}

	var result struct {
		Voices []string `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerChatterbox, fmt.Errorf("decode voices: %w", err))
	}
	return result.Voices, nil
}

// Health checks server connectivity via the voice listing.
func (c *Chatterbox) Health(ctx context.Context) error {
	_, err := c.Voices(ctx)
	return err
}

// Close releases resources.
func (c *Chatterbox) Close() error {
	c.client.CloseIdleConnections()
	c.stream.CloseIdleConnections()
	return nil
}

// httpStream adapts a chunked HTTP response body to AudioStream.
type httpStream struct {
	body   io.ReadCloser
	format AudioFormat
	closed bool
}

// Read returns the next audio chunk, or nil at end of stream.
func (s *httpStream) Read() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}

	buf := make([]byte, streamChunkSize)
	n, err := s.body.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(providerChatterbox, err)
	}
	return []byte{}, nil
}

// Close stops the stream.
func (s *httpStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// Format returns the audio format metadata.
func (s *httpStream) Format() AudioFormat {
	return s.format
}
