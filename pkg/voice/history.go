package voice

import (
	"sync"

	"github.com/voxhollow/voice-agent/pkg/inference"
)

// History holds the conversation messages sent to the language model.
// The system prompt is pinned; older turns are trimmed once the window
// exceeds the configured maximum.
type History struct {
	mu       sync.Mutex
	system   inference.Message
	messages []inference.Message
	max      int
}

// NewHistory creates a history with the given system prompt and window.
// max <= 0 disables trimming.
func NewHistory(systemPrompt string, max int) *History {
	return &History{
		system: inference.NewSystemMessage(systemPrompt),
		max:    max,
	}
}

// Add appends a message and trims the window if needed.
func (h *History) Add(msg inference.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
	h.trim()
}

// AddUser appends a user message.
func (h *History) AddUser(text string) {
	h.Add(inference.NewUserMessage(text))
}

// AddAssistant appends an assistant message.
func (h *History) AddAssistant(text string) {
	h.Add(inference.NewAssistantMessage(text))
}

// AddToolResult appends a tool result message.
func (h *History) AddToolResult(callID, result string) {
	h.Add(inference.NewToolMessage(callID, result))
}

// Messages returns the system prompt followed by the retained turns.
func (h *History) Messages() []inference.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]inference.Message, 0, len(h.messages)+1)
	out = append(out, h.system)
	out = append(out, h.messages...)
	return out
}

// Len returns the number of retained messages, excluding the system prompt.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Reset clears the conversation, keeping the system prompt.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// trim drops the oldest messages past the window. Leading tool results
// are dropped too, so the window never starts with an orphaned tool
// message the model cannot attribute to a call.
func (h *History) trim() {
	if h.max <= 0 || len(h.messages) <= h.max {
		return
	}

	h.messages = h.messages[len(h.messages)-h.max:]
	for len(h.messages) > 0 && h.messages[0].Role == inference.RoleTool {
		h.messages = h.messages[1:]
	}
}
