package routes

import (
	"log"
	"os"

	controller "dambabgo/controllers"
	"dambabgo/middleware"
	"dambabgo/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize logger
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/guest", controller.GuestLogin)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// Log initialization
	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, partyStore *store.Store) {
	partyController := controller.NewPartyController(partyStore, log.New(os.Stdout, "PARTY: ", log.LstdFlags))
	settingsController := controller.NewSettingsController(db, log.New(os.Stdout, "SETTINGS: ", log.LstdFlags))
	recommendController := controller.NewRecommendController(log.New(os.Stdout, "RECOMMEND: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Party routes
	parties := api.Group("/parties")
	parties.Post("/", partyController.CreateParty)
	parties.Get("/", partyController.GetParties)
	parties.Get("/:id", partyController.GetParty)
	parties.Post("/:id/join", partyController.JoinParty)
	parties.Post("/:id/leave", partyController.LeaveParty)
	parties.Post("/:id/close", partyController.CloseParty)
	parties.Post("/:id/vote", partyController.VoteOption)
	parties.Post("/:id/options", partyController.AddVoteOption)
	parties.Put("/:id/order", partyController.UpdateOrder)

	// Notification settings routes
	settings := api.Group("/settings")
	settings.Get("/notifications", settingsController.GetNotificationSettings)
	settings.Put("/notifications", settingsController.UpdateNotificationSettings)

	// Menu recommendation route with rate limiting
	api.Get("/recommendations", middleware.RecommendRateLimiter(), recommendController.GetMenuRecommendations)

	// WebSocket route for the live party stream
	app.Get("/ws/parties", middleware.Protected(), websocket.New(func(c *websocket.Conn) {
		partyController.HandlePartyStreamWS(c)
	}))

	// Log initialization
	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, partyStore *store.Store) {
	// Build the Google OAuth config now that configuration is loaded
	controller.InitGoogleOAuth()

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	SetupAuthRoutes(app, db)

	// Setup API routes
	SetupAPIRoutes(app, db, partyStore)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
