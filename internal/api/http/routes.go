package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weather-forecast/internal/location"
	"github.com/i474232898/weather-forecast/internal/weather"
)

var validate = validator.New()

// NewApp builds the Fiber application with the shared error format.
func NewApp(name string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, device *location.Device) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"presets":         weather.PresetLocations,
			"currentLocation": weather.CurrentLocation,
		})
	})

	// fasthttp does not cancel UserContext when the client goes away; synchronous fetches are
	// bounded by the upstream HTTP timeout instead.
	v1.Get("/forecast", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		forecast, err := service.Forecast(c.UserContext(), q.Location)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(forecastResponse{Location: q.Location, Entries: toEntryViews(forecast)})
	})

	v1.Get("/forecast/daily", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		days, err := service.DailyForecast(c.UserContext(), q.Location)
		if err != nil {
			return toHTTPError(err)
		}

		return c.JSON(fiber.Map{
			"location": q.Location,
			"days":     days,
		})
	})

	v1.Get("/forecast/last", func(c *fiber.Ctx) error {
		forecast, ok := service.LastResult()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no forecast has been fetched yet")
		}
		return c.JSON(forecastResponse{Entries: toEntryViews(forecast)})
	})

	v1.Post("/forecast/requests", func(c *fiber.Ctx) error {
		var body fetchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Location = strings.TrimSpace(body.Location)
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// The fetch outlives this HTTP exchange; it is cancelled through DELETE.
		req := service.Fetch(context.Background(), body.Location, nil, nil)

		return c.Status(fiber.StatusAccepted).JSON(toRequestView(req.Status()))
	})

	v1.Get("/forecast/requests/:id", func(c *fiber.Ctx) error {
		req, ok := service.Request(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown request")
		}
		return c.JSON(toRequestView(req.Status()))
	})

	v1.Delete("/forecast/requests/:id", func(c *fiber.Ctx) error {
		req, ok := service.Request(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown request")
		}
		if !req.Cancel() {
			return fiber.NewError(fiber.StatusConflict, "request already completed")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/device", func(c *fiber.Ctx) error {
		resp := fiber.Map{"permission": device.Permission()}
		if fix, ok := device.LastFix(); ok {
			resp["fix"] = fix
		}
		return c.JSON(resp)
	})

	v1.Put("/device/permission", func(c *fiber.Ctx) error {
		var body permissionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		device.SetPermission(*body.Granted)
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Put("/device/location", func(c *fiber.Ctx) error {
		var body fixRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		device.UpdateFix(weather.Coordinates{Latitude: *body.Latitude, Longitude: *body.Longitude})
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Delete("/device/location", func(c *fiber.Ctx) error {
		device.ClearFix()
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// locationQuery holds the query parameters identifying a location.
type locationQuery struct {
	Location string `validate:"required"`
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{Location: strings.TrimSpace(c.Query("location"))}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

type fetchRequest struct {
	Location string `json:"location" validate:"required"`
}

type permissionRequest struct {
	Granted *bool `json:"granted" validate:"required"`
}

type fixRequest struct {
	Latitude  *float64 `json:"latitude"  validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// toHTTPError maps pipeline errors onto HTTP statuses.
func toHTTPError(err error) error {
	var (
		transportErr *weather.TransportError
		decodeErr    *weather.DecodeError
	)

	switch {
	case errors.Is(err, weather.ErrEmptyLocation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrLocationUnavailable):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &transportErr):
		if errors.Is(err, context.DeadlineExceeded) {
			return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.As(err, &decodeErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, weather.ErrMissingAPIKey):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
