package stt

import (
	"context"
	"sync"
)

// Mock is a configurable fake Provider for tests. Zero value transcribes
// everything to a fixed phrase.
type Mock struct {
	TranscribeFunc func(ctx context.Context, pcm []byte) (*Result, error)
	HealthFunc     func(ctx context.Context) error

	mu    sync.Mutex
	calls int
}

// Transcribe delegates to TranscribeFunc if set.
func (m *Mock) Transcribe(ctx context.Context, pcm []byte) (*Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, pcm)
	}
	if len(pcm) == 0 {
		return nil, ErrEmptyAudio
	}
	return &Result{
		Text:          "mock transcript",
		Language:      "en",
		AudioDuration: pcmDuration(len(pcm), DefaultSampleRate),
		LatencyMs:     1,
	}, nil
}

// Health delegates to HealthFunc if set.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Calls returns how many times Transcribe was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Provider = (*Mock)(nil)
