// Package control exposes the out-of-band HTTP surface for injecting
// events into running conversations: announcements, wake greetings, and
// tool-cache reloads, plus health and capability listings.
package control

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/voxhollow/voice-agent/pkg/hub"
	"github.com/voxhollow/voice-agent/pkg/session"
)

// greetings is the fixed set of wake responses, picked uniformly at
// random per wake request.
var greetings = []string{
	"Hey! What can I help you with?",
	"I'm here. What do you need?",
	"Yes? How can I help?",
	"What's up?",
}

// Connector establishes a new conversation session from a WebRTC offer.
// Implemented by the agent, which spins up the full pipeline per
// connection.
type Connector interface {
	// Connect returns the new session's identifier and the answer SDP.
	Connect(ctx context.Context, offerSDP string) (sessionID, answerSDP string, err error)
}

// ToolReloader rebuilds the workflow tool set. Implemented by the agent:
// it clears the metadata cache, re-runs discovery, and re-registers the
// resulting tools.
type ToolReloader interface {
	// Reload returns the number of tools available after the rebuild.
	Reload(ctx context.Context) (int, error)
}

// VoiceLister reports the available TTS voices.
type VoiceLister interface {
	Voices(ctx context.Context) ([]string, error)
}

// ModelLister reports the models loaded on the inference server.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Deps are the injected collaborators for the control plane. Everything
// the handlers touch comes through here so they stay testable with mocks.
type Deps struct {
	Sessions  *session.Registry
	Connector Connector
	Reloader  ToolReloader
	Voices    VoiceLister
	Models    ModelLister
	Feed      *hub.Hub
	Logger    *slog.Logger
}

// Server is the control-plane HTTP server.
type Server struct {
	app    *fiber.App
	deps   Deps
	logger *slog.Logger

	// pick selects a greeting index; swapped out in tests.
	pick func(n int) int
}

// NewServer builds the control-plane server and its routes.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		deps:   deps,
		logger: logger.With("component", "control"),
		pick:   rand.Intn,
	}

	app := fiber.New(fiber.Config{
		AppName:               "voice-agent control plane",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Post("/session", s.handleSession)
	app.Post("/announce", s.handleAnnounce)
	app.Post("/wake", s.handleWake)
	app.Post("/reload-tools", s.handleReloadTools)
	app.Get("/health", s.handleHealth)
	app.Get("/voices", s.handleVoices)
	app.Get("/models", s.handleModels)

	if deps.Feed != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/transcript", websocket.New(s.handleTranscriptWS))
	}

	s.app = app
	return s
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("control plane listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// handleTranscriptWS subscribes a websocket client to the live
// transcript feed.
func (s *Server) handleTranscriptWS(c *websocket.Conn) {
	client := hub.NewClient(s.deps.Feed, c)
	client.Run()
}
