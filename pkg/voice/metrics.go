package voice

import (
	"sync"
	"time"
)

// Metrics tracks latency at each stage of a conversation turn. All
// durations are measured from the moment the user stopped speaking.
type Metrics struct {
	// Timestamps for key events
	SpeechEndTime  time.Time // When VAD detected end of speech
	TranscriptTime time.Time // When STT completed transcription
	ReplyTime      time.Time // When the LLM reply (after tool rounds) arrived
	FirstAudioTime time.Time // When TTS produced its first audio chunk
	TurnDoneTime   time.Time // When the reply was fully delivered

	// Computed latencies (from speech end)
	STTLatency    time.Duration // Time to complete transcription
	LLMLatency    time.Duration // Time to the final model reply
	TTSFirstAudio time.Duration // Time to first audio chunk
	TotalLatency  time.Duration // Total end-to-end latency

	// Counts for this turn
	ToolCalls int // Tool invocations during the turn
}

// MetricsCollector collects latency metrics across conversation turns.
// Safe for use from multiple pipeline goroutines.
type MetricsCollector struct {
	mu      sync.Mutex
	current Metrics
	history []Metrics
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]Metrics, 0, 100),
	}
}

// MarkSpeechEnd records when the user stopped speaking. This is the
// reference point for all latency measurements and resets the turn.
func (m *MetricsCollector) MarkSpeechEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Metrics{SpeechEndTime: time.Now()}
}

// MarkTranscript records when transcription completed.
func (m *MetricsCollector) MarkTranscript() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TranscriptTime = time.Now()
	if !m.current.SpeechEndTime.IsZero() {
		m.current.STTLatency = m.current.TranscriptTime.Sub(m.current.SpeechEndTime)
	}
}

// MarkReply records when the final model reply arrived.
func (m *MetricsCollector) MarkReply() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.ReplyTime = time.Now()
	if !m.current.SpeechEndTime.IsZero() {
		m.current.LLMLatency = m.current.ReplyTime.Sub(m.current.SpeechEndTime)
	}
}

// MarkFirstAudio records when the first audio chunk was produced.
func (m *MetricsCollector) MarkFirstAudio() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.FirstAudioTime.IsZero() {
		m.current.FirstAudioTime = time.Now()
		if !m.current.SpeechEndTime.IsZero() {
			m.current.TTSFirstAudio = m.current.FirstAudioTime.Sub(m.current.SpeechEndTime)
		}
	}
}

// MarkTurnDone records when the reply was fully delivered and archives
// the turn.
func (m *MetricsCollector) MarkTurnDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TurnDoneTime = time.Now()
	if !m.current.SpeechEndTime.IsZero() {
		m.current.TotalLatency = m.current.TurnDoneTime.Sub(m.current.SpeechEndTime)
	}
	m.history = append(m.history, m.current)
	if len(m.history) > 100 {
		m.history = m.history[1:]
	}
}

// IncrementToolCalls counts a tool invocation in the current turn.
func (m *MetricsCollector) IncrementToolCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.ToolCalls++
}

// Current returns the current turn's snapshot.
func (m *MetricsCollector) Current() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Average returns average latencies over recent turns.
func (m *MetricsCollector) Average() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return Metrics{}
	}

	var avg Metrics
	for _, h := range m.history {
		avg.STTLatency += h.STTLatency
		avg.LLMLatency += h.LLMLatency
		avg.TTSFirstAudio += h.TTSFirstAudio
		avg.TotalLatency += h.TotalLatency
	}

	n := time.Duration(len(m.history))
	avg.STTLatency /= n
	avg.LLMLatency /= n
	avg.TTSFirstAudio /= n
	avg.TotalLatency /= n

	return avg
}

// FormatLatency returns a one-line latency breakdown for logs.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.STTLatency) + " STT | " +
		formatDuration(m.LLMLatency) + " LLM | " +
		formatDuration(m.TTSFirstAudio) + " TTS | " +
		formatDuration(m.TotalLatency) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
