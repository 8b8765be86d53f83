package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Connection
	BaseURL string
	APIKey  string

	// Voice configuration
	Voice        string  // Voice name or reference audio for cloning
	Model        string  // Model variant ("turbo" or "original")
	Exaggeration float64 // Emotion intensity, 0.0 monotone to 1.0 expressive

	// Audio output
	OutputFormat Encoding
	SampleRate   int

	// Timeouts
	Timeout       time.Duration
	StreamTimeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithBaseURL sets the TTS server URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key for providers that require one.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithVoice sets the voice name or reference audio path.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithModel sets the model variant.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithExaggeration sets the emotion intensity (0.0-1.0).
func WithExaggeration(e float64) Option {
	return func(c *Config) { c.Exaggeration = e }
}

// WithOutputFormat sets the audio output format.
func WithOutputFormat(format Encoding) Option {
	return func(c *Config) { c.OutputFormat = format }
}

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

// WithTimeout sets the request timeout for non-streaming requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithStreamTimeout sets the timeout for streaming requests.
func WithStreamTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.StreamTimeout = timeout }
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible defaults for a local Chatterbox server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost:5000",
		Voice:         "default",
		Model:         "turbo",
		Exaggeration:  0.5,
		OutputFormat:  EncodingPCM,
		SampleRate:    24000,
		Timeout:       30 * time.Second,
		StreamTimeout: 120 * time.Second,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
