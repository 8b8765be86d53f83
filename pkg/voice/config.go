package voice

import (
	"errors"
	"time"
)

// Config holds all tunable parameters for the conversation engine,
// organized by pipeline stage.
type Config struct {
	// SessionID identifies this conversation in transcripts and logs.
	SessionID string

	// Audio settings
	InputSampleRate  int // Microphone PCM rate fed to SendAudio (default: 16000)
	OutputSampleRate int // Synthesized PCM rate from the TTS stage (default: 24000)

	// VAD (Voice Activity Detection) settings
	VADThreshold       float64       // Energy activation threshold 0.0-1.0 (default: 0.5)
	VADSilenceDuration time.Duration // Silence to detect end of speech (default: 500ms)
	VADMinSpeech       time.Duration // Shorter bursts are discarded as noise (default: 200ms)

	// LLM settings
	Model        string  // Model name; empty uses the provider default
	Temperature  float64 // Response randomness 0.0-2.0 (default: 0.7)
	MaxTokens    int     // Maximum response tokens (default: 1024)
	SystemPrompt string  // System instructions for the assistant

	// Conversation settings
	MaxToolRounds int // Tool-call round trips per turn before giving up (default: 5)
	MaxHistory    int // Retained messages beyond the system prompt (default: 40)
}

// DefaultConfig returns a Config with sensible defaults for a local
// whisper + ollama + chatterbox stack.
func DefaultConfig() Config {
	return Config{
		InputSampleRate:  16000,
		OutputSampleRate: 24000,

		VADThreshold:       0.5,
		VADSilenceDuration: 500 * time.Millisecond,
		VADMinSpeech:       200 * time.Millisecond,

		Temperature: 0.7,
		MaxTokens:   1024,

		MaxToolRounds: 5,
		MaxHistory:    40,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.InputSampleRate <= 0 {
		return errors.New("voice: input sample rate must be positive")
	}
	if c.OutputSampleRate <= 0 {
		return errors.New("voice: output sample rate must be positive")
	}
	if c.VADThreshold < 0 || c.VADThreshold > 1 {
		return errors.New("voice: VAD threshold must be between 0 and 1")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("voice: temperature must be between 0 and 2")
	}
	if c.MaxToolRounds < 1 {
		return errors.New("voice: max tool rounds must be at least 1")
	}
	return nil
}

// WithSystemPrompt returns a copy with the system prompt set.
func (c Config) WithSystemPrompt(prompt string) Config {
	c.SystemPrompt = prompt
	return c
}

// WithSessionID returns a copy with the session ID set.
func (c Config) WithSessionID(id string) Config {
	c.SessionID = id
	return c
}

// WithVAD returns a copy with VAD settings.
func (c Config) WithVAD(threshold float64, silenceDuration time.Duration) Config {
	c.VADThreshold = threshold
	c.VADSilenceDuration = silenceDuration
	return c
}
