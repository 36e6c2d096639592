package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/volunteer-events/internal/api/http/handlers"
	"github.com/spec-kit/volunteer-events/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Events         *handlers.EventsHandler
	Subscriptions  *handlers.SubscriptionsHandler
	Attendance     *handlers.AttendanceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireMember())

	events := protected.Group("/events")
	events.Post("/", cfg.Events.CreateEvent)
	events.Get("/:id", cfg.Events.GetEvent)
	events.Patch("/:id", cfg.Events.UpdateEvent)
	events.Post("/:id/start", cfg.Events.StartEvent)
	events.Post("/:id/end", cfg.Events.EndEvent)
	events.Post("/:id/cancel", cfg.Events.CancelEvent)
	events.Get("/:id/history", cfg.Events.ListHistory)
	events.Post("/:id/jobs", cfg.Events.AddJob)
	events.Patch("/:id/jobs/:jobId", cfg.Events.UpdateJob)
	events.Post("/:id/jobs/:jobId/subscription", cfg.Subscriptions.Subscribe)
	events.Delete("/:id/jobs/:jobId/subscription", cfg.Subscriptions.Unsubscribe)
	events.Get("/:id/ticket", cfg.Attendance.GetTicket)

	protected.Post("/tickets/redeem", cfg.Attendance.RedeemTicket)

	// paths mirror the ticket encoding so a scanned code can be posted as is
	protected.Post("/event/:id/check-in/:volunteerId", cfg.Attendance.CheckIn)
	protected.Post("/event/:id/check-out/:volunteerId", cfg.Attendance.CheckOut)
}
