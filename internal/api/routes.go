package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/KinGao294/oasis/internal/middleware"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers) {
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	v1 := app.Group("/api/v1")
	v1.Get("/health", handlers.HealthCheck)
	v1.Get("/feed", handlers.GetFeed)

	items := v1.Group("/items")
	{
		items.Get("/:id", handlers.GetItem)
		items.Get("/:id/transcript", handlers.GetTranscript)
		items.Get("/:id/summary", handlers.GetSummary)
	}

	app.Get("/rss", handlers.GetRSS)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
