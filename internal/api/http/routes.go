package httpapi

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Dashboard is the controller surface served over HTTP.
type Dashboard interface {
	State() dashboard.WeatherDataState
	FetchWeatherData(ctx context.Context, coord weather.Coordinate, name string) error
	ResolveCurrentLocationAndFetch(ctx context.Context) error
	Retry(ctx context.Context) error
	Go(ctx context.Context, op func(context.Context) error)
}

// Deps bundles what the routes need.
type Deps struct {
	Dashboard Dashboard
	Searcher  location.Searcher
	// BaseContext scopes background fetches; it outlives single requests.
	BaseContext context.Context
	Logger      *zap.Logger
	Now         func() time.Time
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		state := deps.Dashboard.State()
		return c.JSON(fiber.Map{
			"state": state,
			"view":  BuildView(state, deps.Now()),
		})
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		req := searchQuery{Q: c.Query("q")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		candidates := deps.Searcher.Search(c.UserContext(), req.Q)
		results := make([]searchResult, 0, len(candidates))
		for _, cand := range candidates {
			results = append(results, searchResult{LocationCandidate: cand, Label: cand.Label()})
		}
		return c.JSON(fiber.Map{
			"query":      req.Q,
			"candidates": results,
		})
	})

	v1.Post("/dashboard/fetch", func(c *fiber.Ctx) error {
		var req fetchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		coord := weather.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
		deps.Logger.Info("fetch requested", zap.String("location", req.Name), zap.Stringer("coordinate", coord))
		deps.Dashboard.Go(deps.BaseContext, func(ctx context.Context) error {
			return deps.Dashboard.FetchWeatherData(ctx, coord, req.Name)
		})
		return accepted(c)
	})

	v1.Post("/dashboard/locate", func(c *fiber.Ctx) error {
		deps.Dashboard.Go(deps.BaseContext, deps.Dashboard.ResolveCurrentLocationAndFetch)
		return accepted(c)
	})

	v1.Post("/dashboard/retry", func(c *fiber.Ctx) error {
		deps.Dashboard.Go(deps.BaseContext, deps.Dashboard.Retry)
		return accepted(c)
	})
}

func accepted(c *fiber.Ctx) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// searchQuery holds query parameters for the search endpoint. Short queries
// are valid and answered with no candidates.
type searchQuery struct {
	Q string `validate:"max=100"`
}

type searchResult struct {
	weather.LocationCandidate
	Label string `json:"label"`
}

// fetchRequest selects a location to display.
type fetchRequest struct {
	Lat  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon  *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Name string   `json:"name" validate:"required,max=200"`
}
