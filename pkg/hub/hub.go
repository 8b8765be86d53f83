// Package hub provides a thread-safe websocket broadcast hub for the live
// transcript feed, using the channel-based fan-out pattern.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Event is a transcript entry pushed to connected clients.
type Event struct {
	// SessionID identifies which conversation produced the entry.
	SessionID string `json:"session_id"`

	// Role is "user", "assistant", or "tool".
	Role string `json:"role"`

	// Text is the transcript content.
	Text string `json:"text"`

	// Final marks completed utterances; partials may be revised.
	Final bool `json:"final"`

	// Timestamp is when the entry was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of transcript subscribers and fans events out to
// them. Slow subscribers are dropped rather than allowed to stall the feed.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger
}

// New creates a new transcript hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With("component", "hub"),
	}
}

// Run starts the hub's main loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("transcript client connected", "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("transcript client disconnected", "total", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full, the client is too slow to keep
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow transcript client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts a transcript event to all subscribers. Events are
// dropped rather than blocking the pipeline when the hub is saturated.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode transcript event", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("transcript broadcast saturated, dropping event")
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
