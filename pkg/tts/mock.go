package tts

import (
	"context"
	"sync"
)

// Mock is a configurable fake Provider for tests. Zero value works:
// Synthesize returns a short PCM buffer and Stream yields it in one chunk.
type Mock struct {
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	StreamFunc     func(ctx context.Context, text string) (AudioStream, error)
	HealthFunc     func(ctx context.Context) error
	VoicesFunc     func(ctx context.Context) ([]string, error)

	mu    sync.Mutex
	texts []string
}

// Synthesize records the text and delegates to SynthesizeFunc if set.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record(text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	format := PCMFormat(24000)
	audio := make([]byte, 480)
	return &AudioResult{
		Audio:     audio,
		Format:    format,
		Duration:  PCMDuration(len(audio), format.SampleRate),
		CharCount: len(text),
		LatencyMs: 1,
	}, nil
}

// Stream records the text and delegates to StreamFunc if set.
func (m *Mock) Stream(ctx context.Context, text string) (AudioStream, error) {
	m.record(text)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, text)
	}
	return &memStream{
		chunks: [][]byte{make([]byte, 480)},
		format: PCMFormat(24000),
	}, nil
}

// Voices delegates to VoicesFunc if set.
func (m *Mock) Voices(ctx context.Context) ([]string, error) {
	if m.VoicesFunc != nil {
		return m.VoicesFunc(ctx)
	}
	return []string{"default"}, nil
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

// Texts returns all texts passed to Synthesize and Stream.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}

func (m *Mock) record(text string) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
}

// memStream is an in-memory AudioStream for tests and canned audio.
type memStream struct {
	chunks [][]byte
	format AudioFormat
	pos    int
	closed bool
}

// NewMemStream returns an AudioStream that yields the given chunks in order.
func NewMemStream(format AudioFormat, chunks ...[]byte) AudioStream {
	return &memStream{chunks: chunks, format: format}
}

func (s *memStream) Read() ([]byte, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.pos >= len(s.chunks) {
		return nil, nil
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *memStream) Close() error {
	s.closed = true
	return nil
}

func (s *memStream) Format() AudioFormat { return s.format }

var _ Provider = (*Mock)(nil)
