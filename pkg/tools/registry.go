// Package tools provides the dynamic function registry the conversation
// engine exposes to the language model. Tools are registered at session
// start (discovered workflows, built-ins like web search) and invoked by
// name when the model emits a tool call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/voxhollow/voice-agent/pkg/inference"
)

// Handler executes a tool call. The returned string is fed back to the
// language model as the tool result.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Entry is a registered tool: its schema plus the code that runs it.
type Entry struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry holds the tools available to a conversation. Safe for
// concurrent use; the control plane can replace workflow tools while a
// conversation is invoking them.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
	logger  *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]Entry),
		logger:  logger.With("component", "tools"),
	}
}

// Register adds or replaces a tool. Registering a name that already exists
// overwrites the previous entry.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Name]; !exists {
		r.order = append(r.order, e.Name)
	}
	r.entries[e.Name] = e
}

// Unregister removes a tool. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Invoke runs the named tool. It never returns an error to the caller:
// failures are serialized into the result string, so a broken workflow
// becomes something the model can apologize for instead of a crashed
// conversation.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) string {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("unknown tool invoked", "tool", name)
		return errorPayload(fmt.Sprintf("unknown tool: %s", name))
	}

	r.logger.Info("invoking tool", "tool", name)

	result, err := entry.Handler(ctx, args)
	if err != nil {
		r.logger.Error("tool failed", "tool", name, "error", err)
		return errorPayload(err.Error())
	}
	return result
}

// Definitions returns the tool schemas in registration order, in the shape
// the chat completion API expects.
func (r *Registry) Definitions() []inference.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]inference.Tool, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		defs = append(defs, inference.NewTool(e.Name, e.Description, e.Parameters))
	}
	return defs
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// errorPayload serializes a failure so the model sees structured output
// rather than an opaque blob.
func errorPayload(msg string) string {
	payload, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"tool execution failed"}`
	}
	return string(payload)
}
