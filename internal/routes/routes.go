package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/shipra-ai/shipra-backend/internal/handlers"
	"github.com/shipra-ai/shipra-backend/internal/middleware"
	"github.com/shipra-ai/shipra-backend/internal/services"
	"github.com/shipra-ai/shipra-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, sessions *services.SessionStore, orders storage.OrderStore, whatsappService *services.WhatsAppService) {

	whatsappHandler := handlers.NewWhatsAppHandler(whatsappService)
	sessionHandler := handlers.NewSessionHandler(sessions, orders)
	healthHandler := handlers.NewHealthHandler("1.0.0")

	app.Get("/health", healthHandler.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook - ENVIRONMENT-AWARE VALIDATION
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		// Development: Skip validation for ngrok
		webhooks.Post("/whatsapp", whatsappHandler.HandleWebhook)
		if os.Getenv("ENVIRONMENT") == "development" {
			println("⚠️  WhatsApp webhook validation DISABLED for development")
		}
	} else {
		// Production: Validate webhook signature
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsappHandler.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	app.Post("/test/whatsapp", whatsappHandler.HandleTestWebhook)

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/admin")
	admin.Get("/sessions", sessionHandler.ListSessions)
	admin.Get("/sessions/count", sessionHandler.ActiveCount)
	admin.Get("/sessions/:id/summary", sessionHandler.GetSummary)
	admin.Post("/sessions", sessionHandler.CreateSession)
	admin.Post("/sessions/cleanup", sessionHandler.Cleanup)
	admin.Post("/sessions/:id/complete", sessionHandler.CompleteSession)
	admin.Post("/sessions/:id/expire", sessionHandler.ExpireSession)
	admin.Get("/conversations/:phone", sessionHandler.GetHistory)
	admin.Get("/orders", sessionHandler.ListOrders)
}
