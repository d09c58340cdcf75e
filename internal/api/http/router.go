package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/conectapg/occurrence-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Users       *handlers.UsersHandler
	Occurrences *handlers.OccurrencesHandler
	Metrics     nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	users := app.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Get("/active", cfg.Users.ListActive)
	users.Get("/email/:email", cfg.Users.GetByEmail)
	users.Get("/role/:role", cfg.Users.ListByRole)
	users.Get("/:id", cfg.Users.Get)
	users.Post("/", cfg.Users.Create)
	users.Put("/:id", cfg.Users.Update)
	users.Patch("/:id/active", cfg.Users.SetActive)
	users.Delete("/:id", cfg.Users.Delete)

	occurrences := app.Group("/occurrences")
	occurrences.Get("/", cfg.Occurrences.List)
	occurrences.Get("/status/:status", cfg.Occurrences.ListByStatus)
	occurrences.Get("/user/:userId", cfg.Occurrences.ListByOwner)
	occurrences.Get("/location", cfg.Occurrences.ListByLocation)
	occurrences.Get("/:id", cfg.Occurrences.Get)
	occurrences.Post("/", cfg.Occurrences.Create)
	occurrences.Put("/:id", cfg.Occurrences.Update)
	occurrences.Patch("/:id/status", cfg.Occurrences.SetStatus)
	occurrences.Delete("/:id", cfg.Occurrences.Delete)
}
