package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codariq/codariq-api/internal/config"
	"github.com/codariq/codariq-api/internal/handler"
	"github.com/codariq/codariq-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GenerationHandler *handler.GenerationHandler
	FeedbackHandler   *handler.FeedbackHandler
	RegistryHandler   *handler.RegistryHandler
	InsightHandler    *handler.InsightHandler
	EvaluationHandler *handler.EvaluationHandler
	FeedHandler       *handler.FeedHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.GenerationHandler != nil {
		deps.GenerationHandler.Register(api.Group("/generations"))
	}

	if deps.FeedbackHandler != nil {
		deps.FeedbackHandler.Register(api.Group("/feedback"))
	}

	if deps.RegistryHandler != nil {
		deps.RegistryHandler.Register(api.Group("/models"))
	}

	if deps.InsightHandler != nil {
		deps.InsightHandler.Register(api.Group("/insights"))
	}

	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(api.Group("/evaluations"))
	}

	if deps.FeedHandler != nil {
		deps.FeedHandler.Register(api.Group("/feed"))
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	admin := app.Group("/api/v1/admin", jwtMiddleware)
	if deps.FeedbackHandler != nil {
		deps.FeedbackHandler.RegisterAdmin(admin)
	}
	if deps.RegistryHandler != nil {
		deps.RegistryHandler.RegisterAdmin(admin)
	}
}
