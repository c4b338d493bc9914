package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/shipra-ai/shipra-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	whatsappService *services.WhatsAppService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(whatsappService *services.WhatsAppService) *WhatsAppHandler {
	return &WhatsAppHandler{
		whatsappService: whatsappService,
	}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid          string `form:"MessageSid"`
	AccountSid          string `form:"AccountSid"`
	MessagingServiceSid string `form:"MessagingServiceSid"`
	From                string `form:"From"` // WhatsApp number (whatsapp:+919876543210)
	To                  string `form:"To"`   // Your Twilio number
	Body                string `form:"Body"` // Message text
	NumMedia            string `form:"NumMedia"`
	MediaUrl0           string `form:"MediaUrl0"`
	MediaContentType0   string `form:"MediaContentType0"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	if payload.From == "" {
		// Status callbacks and other non-message events are acknowledged silently
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message from %s", payload.From)

	numMedia, _ := strconv.Atoi(payload.NumMedia)
	msg := services.IncomingMessage{
		From:             payload.From,
		Body:             payload.Body,
		NumMedia:         numMedia,
		MediaURL:         payload.MediaUrl0,
		MediaContentType: payload.MediaContentType0,
	}

	if err := h.whatsappService.ProcessIncoming(c.Context(), msg); err != nil {
		// The customer already got an apology reply; the webhook still acks
		// so Twilio does not redeliver
		log.Printf("Error processing message from %s: %v", payload.From, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the JSON shape for testing without Twilio
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes test WhatsApp messages (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook received from %s: %s", payload.From, payload.Message)

	msg := services.IncomingMessage{
		From: payload.From,
		Body: payload.Message,
	}
	if err := h.whatsappService.ProcessIncoming(c.Context(), msg); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
