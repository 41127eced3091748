package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

// SetupOpsRoutes mounts the health probe and the Prometheus scrape endpoint.
func SetupOpsRoutes(app *fiber.App, db *gorm.DB) {
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Get(HealthPath, func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
