package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

// Pinger probes the job store. Both store backends implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports whether the job store answers.
//
// @Summary     Dependency health
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]string
// @Failure     503 {object} errorPayload
// @Router      /health [get]
func HealthCheck(p Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 as long as the process serves requests.
//
// @Summary     Liveness
// @Tags        health
// @Success     200
// @Router      /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
