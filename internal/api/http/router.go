package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/cleaning-dispatch/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Staff       *handlers.StaffHandler
	Requests    *handlers.RequestsHandler
	Assignments *handlers.AssignmentsHandler
	// Gatherer backs /metrics; prometheus.DefaultGatherer when nil.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	staff := app.Group("/staff")
	staff.Post("/", cfg.Staff.Register)
	staff.Get("/", cfg.Staff.List)
	staff.Get("/:id", cfg.Staff.Get)
	staff.Put("/:id", cfg.Staff.Update)
	staff.Patch("/:id/status", cfg.Staff.SetStatus)

	requests := app.Group("/requests")
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Patch("/:id/status", cfg.Requests.UpdateStatus)
	requests.Get("/:id/history", cfg.Requests.History)
	requests.Get("/:id/candidates", cfg.Assignments.Candidates)
	requests.Post("/:id/assignment/auto", cfg.Assignments.AutoAssign)
	requests.Post("/:id/assignment", cfg.Assignments.ManualAssign)
	requests.Get("/:id/assignment", cfg.Assignments.Get)
	requests.Delete("/:id/assignment", cfg.Assignments.Release)

	app.Get("/assignments", cfg.Assignments.List)
}
