package router

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/melhorenem-api/internal/config"
	"github.com/noah-isme/melhorenem-api/internal/handler"
	"github.com/noah-isme/melhorenem-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EssayHandler     *handler.EssayHandler
	DashboardHandler *handler.DashboardHandler
	DB               *gorm.DB
	// GradeLimiter guards the grading route, which spends model quota on every call.
	GradeLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler(nil))

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	if deps.EssayHandler != nil {
		var gradeMiddleware []fiber.Handler
		if deps.GradeLimiter != nil {
			gradeMiddleware = append(gradeMiddleware, deps.GradeLimiter)
		}
		deps.EssayHandler.Register(api, gradeMiddleware...)
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api)
	}

	// The browser frontend, when deployed alongside the API.
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir, fiber.Static{Index: "index.html"})
	}
}
