package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shipra-ai/shipra-backend/internal/services"
	"github.com/shipra-ai/shipra-backend/internal/storage"
)

// SessionHandler exposes the administrative session and order surface
type SessionHandler struct {
	sessions *services.SessionStore
	orders   storage.OrderStore
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionStore, orders storage.OrderStore) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		orders:   orders,
	}
}

// ListSessions returns a snapshot of every session in the table
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	sessions := h.sessions.GetAllSessions()
	return c.JSON(fiber.Map{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// ActiveCount returns the number of active sessions
func (h *SessionHandler) ActiveCount(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"active_sessions": h.sessions.GetActiveSessionsCount(),
	})
}

// GetSummary returns the reporting projection for one session
func (h *SessionHandler) GetSummary(c *fiber.Ctx) error {
	summary := h.sessions.GetSessionSummary(c.Params("id"))
	if summary == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session not found",
		})
	}
	return c.JSON(summary)
}

// GetHistory returns recent conversation messages for a phone number
func (h *SessionHandler) GetHistory(c *fiber.Ctx) error {
	phone := c.Params("phone")
	limit := c.QueryInt("limit", 0)

	messages := h.sessions.GetConversationHistory(phone, limit)
	return c.JSON(fiber.Map{
		"phone_number": phone,
		"count":        len(messages),
		"messages":     messages,
	})
}

// CreateSessionRequest is the admin payload for forcing a fresh session
type CreateSessionRequest struct {
	PhoneNumber    string         `json:"phone_number"`
	InitialMessage string         `json:"initial_message"`
	Context        map[string]any `json:"context"`
}

// CreateSession forces a brand-new session for a phone number. This
// overwrites the phone index, so it is exposed only on the admin surface;
// message ingestion resolves or creates sessions on its own.
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}
	if req.PhoneNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "phone_number is required",
		})
	}

	session := h.sessions.CreateSession(req.PhoneNumber, req.InitialMessage, req.Context)
	return c.Status(fiber.StatusCreated).JSON(session)
}

// CompleteSession marks a session completed
func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	if !h.sessions.CompleteSession(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session not found",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ExpireSession marks a session expired
func (h *SessionHandler) ExpireSession(c *fiber.Ctx) error {
	if !h.sessions.ExpireSession(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session not found",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Cleanup triggers the expired-session sweep
func (h *SessionHandler) Cleanup(c *fiber.Ctx) error {
	purged := h.sessions.CleanupExpiredSessions()
	return c.JSON(fiber.Map{
		"purged": purged,
	})
}

// ListOrders returns every stored order record
func (h *SessionHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.GetAllOrders()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"count":  len(orders),
		"orders": orders,
	})
}
