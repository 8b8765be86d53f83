package stt

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Streaming connection tuning.
const (
	handshakeTimeout = 10 * time.Second
	readDeadline     = 120 * time.Second
	writeDeadline    = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// StreamClient maintains a WebSocket connection to a streaming transcription
// server. Audio is sent as binary PCM16 frames; the server replies with JSON
// transcript events ({"text": ..., "final": ...}), partials first and a final
// transcript at each end of utterance.
type StreamClient struct {
	url    string
	apiKey string
	logger *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex

	// OnTranscript receives transcript events as they arrive. Set before
	// calling Connect.
	OnTranscript func(t Transcript)

	// OnError receives read-loop failures. The connection is dead once
	// this fires.
	OnError func(err error)

	connected bool
	closed    bool
}

// NewStreamClient creates a streaming STT client for the given ws:// URL.
func NewStreamClient(url string, opts ...Option) *StreamClient {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &StreamClient{
		url:    url,
		apiKey: cfg.APIKey,
		logger: cfg.Logger.With("component", "stt.stream"),
	}
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *StreamClient) Connect() error {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	ws, _, err := dialer.Dial(c.url, header)
	if err != nil {
		return WrapError("stream", err)
	}

	ws.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeDeadline))
	})
	ws.SetReadDeadline(time.Now().Add(readDeadline))

	c.wsMu.Lock()
	c.ws = ws
	c.connected = true
	c.closed = false
	c.wsMu.Unlock()

	go c.readLoop()
	go c.keepAlive()

	return nil
}

// SendAudio streams a PCM16 frame to the server.
func (c *StreamClient) SendAudio(pcm []byte) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil || !c.connected {
		return ErrNotConnected
	}

	c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.ws.WriteMessage(websocket.BinaryMessage, pcm)
}

// EndUtterance asks the server to finalize the current utterance.
func (c *StreamClient) EndUtterance() error {
	return c.sendJSON(map[string]string{"type": "flush"})
}

// Close shuts down the connection.
func (c *StreamClient) Close() error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.connected = false

	if c.ws != nil {
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeDeadline))
		return c.ws.Close()
	}
	return nil
}

// IsConnected reports whether the connection is usable.
func (c *StreamClient) IsConnected() bool {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	return c.connected && !c.closed
}

func (c *StreamClient) readLoop() {
	for {
		c.wsMu.Lock()
		ws, closed := c.ws, c.closed
		c.wsMu.Unlock()
		if closed || ws == nil {
			return
		}

		ws.SetReadDeadline(time.Now().Add(readDeadline))
		_, message, err := ws.ReadMessage()
		if err != nil {
			c.wsMu.Lock()
			c.connected = false
			wasClosed := c.closed
			c.wsMu.Unlock()
			if !wasClosed && c.OnError != nil {
				c.OnError(WrapError("stream", err))
			}
			return
		}

		var event struct {
			Text  string `json:"text"`
			Final bool   `json:"final"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Warn("unparseable transcript event", "error", err)
			continue
		}

		if event.Error != "" {
			c.logger.Warn("server transcript error", "error", event.Error)
			continue
		}

		if c.OnTranscript != nil {
			c.OnTranscript(Transcript{Text: event.Text, Final: event.Final})
		}
	}
}

func (c *StreamClient) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.wsMu.Lock()
		if c.ws == nil || c.closed {
			c.wsMu.Unlock()
			return
		}
		err := c.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline))
		c.wsMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (c *StreamClient) sendJSON(v any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil || !c.connected {
		return ErrNotConnected
	}

	c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.ws.WriteJSON(v)
}
