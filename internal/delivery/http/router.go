package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/smartcity/commute/internal/domain"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, gatherer prometheus.Gatherer) {
	// Health check
	app.Get("/health", handler.HealthCheck)

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	api := app.Group("/api/v1")
	{
		api.Get("/dashboard", handler.GetDashboard)

		api.Post("/heatmap", handler.RefreshHeatmap)
		api.Get("/heatmap/latest", handler.GetLatestHeatmap)

		// Route first, then predict
		api.Post("/commute", handler.EstimateCommute)
		api.Get("/commute/latest", handler.GetLatestCommute)
		api.Get("/commute/history", handler.GetCommuteHistory)
	}
}

// ErrorHandler maps the pipeline error taxonomy to HTTP status codes
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.Is(err, domain.ErrInvalidConfig):
		code = fiber.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrRouteUnavailable):
		code = fiber.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		code = fiber.StatusBadGateway
		message = err.Error()
	default:
		zap.L().Error("unhandled request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
