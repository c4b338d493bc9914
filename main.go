package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/shipra-ai/shipra-backend/database"
	"github.com/shipra-ai/shipra-backend/internal/jobs"
	"github.com/shipra-ai/shipra-backend/internal/models"
	"github.com/shipra-ai/shipra-backend/internal/routes"
	"github.com/shipra-ai/shipra-backend/internal/services"
	"github.com/shipra-ai/shipra-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}

		log.Printf("🔍 TWILIO_ACCOUNT_SID exists: %v", os.Getenv("TWILIO_ACCOUNT_SID") != "")
		log.Printf("🔍 OPENAI_API_KEY exists: %v", os.Getenv("OPENAI_API_KEY") != "")
		log.Printf("🔍 FRAPPE_API_URL: %s", os.Getenv("FRAPPE_API_URL"))
	}

	// Initialize order storage
	var orderStore storage.OrderStore

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory order storage (not for production!)")
		orderStore = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		if err := database.DB.AutoMigrate(&models.OrderRecord{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		orderStore = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL order storage")
	}

	// Initialize Twilio service
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Fatal("Failed to initialize Twilio service:", err)
	}
	log.Println("✅ Twilio service initialized")

	// Initialize the LLM-backed order extractor
	llm, err := services.NewOpenAIModel()
	if err != nil {
		log.Fatal("Failed to initialize LLM client:", err)
	}
	extractor := services.NewExtractorService(llm, twilioService)
	log.Println("✅ Order extractor initialized")

	// Initialize Frappe ERP service
	frappeService, err := services.NewFrappeService(
		os.Getenv("FRAPPE_API_URL"),
		os.Getenv("FRAPPE_API_KEY"),
		os.Getenv("FRAPPE_API_SECRET"),
	)
	if err != nil {
		log.Fatal("Failed to initialize Frappe service:", err)
	}
	log.Println("✅ Frappe service initialized")

	// Session store and message processing
	sessionStore := services.NewSessionStore(services.DefaultSessionTTL)
	whatsappService := services.NewWhatsAppService(sessionStore, twilioService, extractor, frappeService, orderStore)

	// Start the periodic session sweep
	cleanupJob := jobs.NewSessionCleanupJob(sessionStore, time.Hour)
	cleanupJob.Start()

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Shipra Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Root endpoint with service status
	app.Get("/", func(c *fiber.Ctx) error {
		response := fiber.Map{
			"service":     "Shipra Backend API",
			"version":     "1.0.0",
			"status":      "healthy",
			"environment": getEnvironment(),
			"storage":     getStorageType(),
			"whatsapp": fiber.Map{
				"configured": os.Getenv("TWILIO_ACCOUNT_SID") != "",
			},
		}

		// Add database status if using database
		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			dbStatus := "connected"
			if err != nil {
				dbStatus = "error: " + err.Error()
			} else if err := sqlDB.Ping(); err != nil {
				dbStatus = "error: " + err.Error()
			}

			var orderCount int64
			database.DB.Model(&models.OrderRecord{}).Count(&orderCount)

			response["database"] = fiber.Map{
				"status": dbStatus,
				"orders": orderCount,
			}
		}

		response["services"] = fiber.Map{
			"sessions":      sessionStore.GetActiveSessionsCount(),
			"session_sweep": "active",
		}

		return c.JSON(response)
	})

	// Setup routes
	routes.SetupRoutes(app, sessionStore, orderStore, whatsappService)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping session cleanup job...")
		cleanupJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 Shipra Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("📱 WhatsApp: %s", getWhatsAppStatus(os.Getenv("TWILIO_ACCOUNT_SID")))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getWhatsAppStatus(twilioSID string) string {
	if twilioSID == "" {
		return "Not configured"
	}
	return "Configured"
}
