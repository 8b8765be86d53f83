package stt

import (
	"log/slog"
	"time"
)

// Default configuration values for a local whisper-server instance.
const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultModel      = "whisper-1"
	DefaultLanguage   = "en"
	DefaultSampleRate = 16000
	DefaultTimeout    = 30 * time.Second
)

// Config holds STT provider configuration.
type Config struct {
	// Server connection
	BaseURL string
	APIKey  string

	// Transcription parameters
	Model    string
	Language string

	// SampleRate of the PCM16 audio passed to Transcribe, in Hz.
	SampleRate int

	// Timeout for a single transcription request.
	Timeout time.Duration

	// Logger for provider events.
	Logger *slog.Logger
}

// Option is a functional option for configuring STT providers.
type Option func(*Config)

// WithBaseURL sets the server base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key for authenticated servers.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithLanguage sets the expected spoken language.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithSampleRate sets the input audio sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		Model:      DefaultModel,
		Language:   DefaultLanguage,
		SampleRate: DefaultSampleRate,
		Timeout:    DefaultTimeout,
		Logger:     slog.Default(),
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
