package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Router groups the handlers mounted by RegisterRoutes
type Router struct {
	IPO         *IPOHandler
	GMP         *GMPHandler
	Check       *CheckHandler
	Dashboard   *DashboardHandler
	Admin       *AdminHandler
	Performance *PerformanceHandler
}

// RegisterRoutes mounts the presentation API on app
func RegisterRoutes(app *fiber.App, r Router) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := app.Group("/api/v1")

	// IPO Routes
	api.Get("/ipos", r.IPO.GetIPOs)
	api.Get("/ipos/:id/gmp", r.GMP.GetGMPByIPO)
	api.Get("/ipos/:id/subscription", r.IPO.GetSubscription)
	api.Get("/ipos/:id", r.IPO.GetIPOByID)

	// Allotment Routes
	allotment := api.Group("/allotment")
	allotment.Get("/ipos", r.Check.GetEligibleIPOs)
	allotment.Post("/check", r.Check.CheckAllotment)
	allotment.Post("/initiate", r.Check.InitiateExternal)

	// Dashboard Routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/applications", r.Dashboard.GetApplications)
	dashboard.Post("/applications/:id/status", RequireCredential, r.Dashboard.UpdateApplicationStatus)

	// Admin Routes
	admin := api.Group("/admin", RequireCredential)
	admin.Put("/ipos/:id/subscription", r.Admin.UpdateSubscription)

	// Performance Routes
	if r.Performance != nil {
		perf := api.Group("/performance")
		perf.Get("/metrics", r.Performance.GetPerformanceMetrics)
		perf.Delete("/cache", r.Performance.ClearCache)
		perf.Post("/cache/warmup", r.Performance.WarmupCache)
	}
}
