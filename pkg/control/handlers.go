package control

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voxhollow/voice-agent/pkg/session"
)

// defaultAnnouncement is spoken when an announce request carries no message.
const defaultAnnouncement = "Voice assistant is online and ready."

type sessionRequest struct {
	SDP string `json:"sdp"`
}

type announceRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type wakeRequest struct {
	SessionID string `json:"session_id"`
}

type reloadRequest struct {
	SessionID string `json:"session_id"`
	ToolName  string `json:"tool_name"`
	Message   string `json:"message"`
}

// handleSession answers a WebRTC offer with a new conversation session.
func (s *Server) handleSession(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if req.SDP == "" {
		return badRequest(c, "missing offer SDP")
	}

	if s.deps.Connector == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "session setup not configured",
		})
	}

	sessionID, answer, err := s.deps.Connector.Connect(c.Context(), req.SDP)
	if err != nil {
		s.logger.Error("session setup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to establish session",
		})
	}

	s.logger.Info("session established", "session_id", sessionID)
	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"sdp":        answer,
	})
}

// handleAnnounce injects a spoken message into a live session.
func (s *Server) handleAnnounce(c *fiber.Ctx) error {
	var req announceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	handle, ok := s.lookup(c, req.SessionID)
	if !ok {
		return sessionNotFound(c, req.SessionID)
	}

	message := req.Message
	if message == "" {
		message = defaultAnnouncement
	}

	if err := handle.Say(c.Context(), message); err != nil {
		s.logger.Error("announce failed", "session_id", req.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to speak announcement",
		})
	}

	return c.JSON(fiber.Map{
		"status":     "announced",
		"session_id": req.SessionID,
	})
}

// handleWake speaks a random greeting, as if the assistant heard its
// wake word.
func (s *Server) handleWake(c *fiber.Ctx) error {
	var req wakeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	handle, ok := s.lookup(c, req.SessionID)
	if !ok {
		return sessionNotFound(c, req.SessionID)
	}

	greeting := greetings[s.pick(len(greetings))]
	if err := handle.Say(c.Context(), greeting); err != nil {
		s.logger.Error("wake greeting failed", "session_id", req.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to speak greeting",
		})
	}

	return c.JSON(fiber.Map{
		"status":     "greeted",
		"session_id": req.SessionID,
	})
}

// handleReloadTools rebuilds the session's tool set. The session
// existence check runs before any cache is touched, so an unknown
// session never clears state.
func (s *Server) handleReloadTools(c *fiber.Ctx) error {
	var req reloadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	handle, ok := s.lookup(c, req.SessionID)
	if !ok {
		return sessionNotFound(c, req.SessionID)
	}

	if s.deps.Reloader == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "tool reload not configured",
		})
	}

	count, err := s.deps.Reloader.Reload(c.Context())
	if err != nil {
		s.logger.Error("tool reload failed", "session_id", req.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "tool reload failed",
		})
	}

	if req.Message != "" {
		if err := handle.Say(c.Context(), req.Message); err != nil {
			s.logger.Warn("reload announcement failed", "session_id", req.SessionID, "error", err)
		}
	}

	s.logger.Info("tools reloaded", "session_id", req.SessionID, "tool_count", count, "tool", req.ToolName)

	return c.JSON(fiber.Map{
		"status":     "reloaded",
		"tool_count": count,
		"session_id": req.SessionID,
	})
}

// handleHealth reports liveness and the active session identifiers.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	active := []string{}
	if s.deps.Sessions != nil {
		active = s.deps.Sessions.ListActive()
	}
	return c.JSON(fiber.Map{
		"status":          "ok",
		"active_sessions": active,
	})
}

// handleVoices lists the TTS voices. Degrades to the default voice when
// the TTS server is unreachable, so frontends always get a usable list.
func (s *Server) handleVoices(c *fiber.Ctx) error {
	if s.deps.Voices == nil {
		return c.JSON(fiber.Map{"voices": []string{"default"}})
	}

	voices, err := s.deps.Voices.Voices(c.Context())
	if err != nil || len(voices) == 0 {
		if err != nil {
			s.logger.Warn("voice listing failed", "error", err)
		}
		voices = []string{"default"}
	}
	return c.JSON(fiber.Map{"voices": voices})
}

// handleModels lists the inference server's models. Degrades to an empty
// list when the server is unreachable.
func (s *Server) handleModels(c *fiber.Ctx) error {
	models := []string{}
	if s.deps.Models != nil {
		listed, err := s.deps.Models.ListModels(c.Context())
		if err != nil {
			s.logger.Warn("model listing failed", "error", err)
		} else if listed != nil {
			models = listed
		}
	}
	return c.JSON(fiber.Map{"models": models})
}

// lookup resolves a session handle, treating an empty id as unknown.
func (s *Server) lookup(c *fiber.Ctx, sessionID string) (session.Handle, bool) {
	if s.deps.Sessions == nil || sessionID == "" {
		return nil, false
	}
	return s.deps.Sessions.Lookup(sessionID)
}

func sessionNotFound(c *fiber.Ctx, sessionID string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "session not found",
		"session_id": sessionID,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
