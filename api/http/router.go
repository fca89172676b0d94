package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haggleops/haggle/api/http/handlers"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(
	app *fiber.App,
	auth *handlers.AuthHandler,
	health *handlers.HealthHandler,
	negotiation *handlers.NegotiationHandler,
	savings *handlers.SavingsHandler,
	llm *handlers.LLMHandler,
	authMW fiber.Handler,
) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", auth.Register)
	a.Post("/login", auth.Login)

	// Pre-flight engine diagnostics
	v1.Get("/llm/selftest", authMW, llm.SelfTest)

	// Negotiation workflow
	n := v1.Group("/negotiations", authMW)
	n.Post("/proposals", negotiation.Proposals)
	n.Post("/simulate", negotiation.Simulate)
	n.Post("/", negotiation.Save)
	n.Get("/", negotiation.List)
	n.Get("/summary", savings.Summary)
	n.Get("/funnel", savings.Funnel)
	n.Get("/export", savings.Export)
}
