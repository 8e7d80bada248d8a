package httpapi

import (
	"crypto/subtle"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/temperature-monitor/internal/channel"
	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/metrics"
	"github.com/i474232898/temperature-monitor/internal/monitor"
	"github.com/i474232898/temperature-monitor/internal/sensor"
)

// AdminHeader carries the admin token for sensor write commands.
const AdminHeader = "X-Admin-Token"

var validate = validator.New()

// Monitor is the part of the monitor service exposed over HTTP.
type Monitor interface {
	Stats() monitor.Stats
	SensorLocation() sensor.Location
	SetSpawn() (sensor.Location, error)
	SetLocation(pos climate.Position) (sensor.Location, error)
}

// Deps bundles what the routes need.
type Deps struct {
	Service  Monitor
	Channels *channel.Server
	Metrics  *metrics.Manager
	// AdminToken guards write commands; empty disables them.
	AdminToken string
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "temperature-monitor",
		})
	})

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	v1 := app.Group("/api/v1")

	if deps.Channels != nil {
		deps.Channels.Mount(v1)
	}

	if deps.Service == nil {
		return
	}
	service := deps.Service
	admin := requireAdmin(deps.AdminToken)

	v1.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(service.Stats())
	})

	v1.Get("/sensor", func(c *fiber.Ctx) error {
		return c.JSON(locationResponse(service.SensorLocation()))
	})

	v1.Post("/sensor/spawn", admin, func(c *fiber.Ctx) error {
		loc, err := service.SetSpawn()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save sensor settings")
		}
		return c.JSON(locationResponse(loc))
	})

	v1.Post("/sensor/location", admin, func(c *fiber.Ctx) error {
		var req positionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := service.SetLocation(req.toPosition())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save sensor settings")
		}
		return c.JSON(locationResponse(loc))
	})
}

func requireAdmin(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return fiber.NewError(fiber.StatusForbidden, "sensor commands are disabled")
		}
		got := c.Get(AdminHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "admin token required")
		}
		return c.Next()
	}
}

// positionRequest is the body of POST /sensor/location.
type positionRequest struct {
	X *int `json:"x" validate:"required"`
	Y *int `json:"y" validate:"required"`
	Z *int `json:"z" validate:"required"`
}

func (p positionRequest) toPosition() climate.Position {
	return climate.Position{X: *p.X, Y: *p.Y, Z: *p.Z}
}

func locationResponse(loc sensor.Location) fiber.Map {
	if loc.Mode == sensor.ModeUnset {
		return fiber.Map{"mode": loc.Mode, "message": "sensor location not configured"}
	}
	return fiber.Map{"mode": loc.Mode, "position": loc.Position}
}
