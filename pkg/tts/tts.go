// Package tts provides a unified interface for text-to-speech providers.
//
// The default backend is a Chatterbox TTS server, which exposes an
// OpenAI-compatible /v1/audio/speech endpoint with zero-shot voice cloning
// and an emotion-exaggeration control. All providers implement the Provider
// interface, enabling seamless switching without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewChatterbox(
//	    tts.WithBaseURL("http://localhost:5000"),
//	    tts.WithVoice("default"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains raw PCM16 audio bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider switching.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	// Use this for short text where latency to first byte is less critical.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Stream converts text to audio with streaming output for lowest latency.
	// Audio chunks are returned as they become available.
	Stream(ctx context.Context, text string) (AudioStream, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioStream represents a streaming audio response.
// Callers should read until Read returns nil, then call Close.
type AudioStream interface {
	// Read returns the next audio chunk.
	// Returns nil when the stream is complete (not an error).
	Read() ([]byte, error)

	// Close stops the stream and releases resources.
	Close() error

	// Format returns the audio format metadata.
	Format() AudioFormat
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to first byte in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., pcm, mp3).
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16).
	BitDepth int
}

// Encoding represents audio encoding types.
// These match the Chatterbox response_format options.
type Encoding string

const (
	// EncodingPCM is raw 16-bit PCM, lowest latency.
	EncodingPCM Encoding = "pcm"

	// EncodingWAV is PCM with a WAV header.
	EncodingWAV Encoding = "wav"

	// EncodingMP3 is compressed MP3.
	EncodingMP3 Encoding = "mp3"
)

// PCMFormat returns the format produced by a PCM provider at the given rate.
func PCMFormat(sampleRate int) AudioFormat {
	return AudioFormat{
		Encoding:   EncodingPCM,
		SampleRate: sampleRate,
		Channels:   1,
		BitDepth:   16,
	}
}

// PCMDuration estimates the playback duration of raw PCM16 mono audio.
func PCMDuration(bytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := bytes / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
