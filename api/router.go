package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/francisforadreport/ethvsbtc/api/handlers"
	"github.com/francisforadreport/ethvsbtc/internal/scheduler"
	"github.com/francisforadreport/ethvsbtc/internal/store"
)

func SetupRoutes(app *fiber.App, st *store.Store, sched *scheduler.Scheduler) {
	dashboard := handlers.NewDashboardHandler(st, sched)

	v1 := app.Group("/v1")

	v1.Get("/snapshot", dashboard.GetSnapshot)
	v1.Get("/sections/:name", dashboard.GetSection)
	v1.Post("/range/:range", dashboard.SetRange)
	v1.Get("/preferences/:symbol", dashboard.GetPreference)
	v1.Put("/preferences/:symbol", dashboard.SetPreference)

	app.Get("/health", dashboard.Health)
}
