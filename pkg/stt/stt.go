// Package stt provides speech-to-text transcription for the voice pipeline.
//
// Two modes are supported: batch transcription of complete utterances via
// an OpenAI-compatible HTTP endpoint (Whisper), and low-latency streaming
// over WebSocket for servers that emit partial transcripts as audio arrives.
package stt

import (
	"context"
	"time"
)

// Provider transcribes spoken audio to text.
type Provider interface {
	// Transcribe converts a complete PCM16 mono utterance to text.
	// Audio must match the sample rate the provider was configured with.
	Transcribe(ctx context.Context, pcm []byte) (*Result, error)

	// Health checks if the provider is available.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Result is a completed transcription.
type Result struct {
	// Text is the transcribed speech.
	Text string

	// Language is the detected or configured language code, if known.
	Language string

	// AudioDuration is the length of the transcribed audio.
	AudioDuration time.Duration

	// LatencyMs is the wall-clock transcription time.
	LatencyMs int64
}

// Transcript is a streaming transcription event. Partial transcripts may be
// revised by later events; Final marks the end of an utterance.
type Transcript struct {
	Text  string
	Final bool
}
