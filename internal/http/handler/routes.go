package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tt2import/internal/service"
)

// RegisterRoutes attaches the HTTP routes to app. gatherer backs /metrics.
func RegisterRoutes(app *fiber.App, health Pinger, svc service.ImportService, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(health))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Post("/imports", SubmitImport(svc))
	app.Get("/imports/:id", GetImport(svc))
}
