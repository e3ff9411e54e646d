package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/console"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	interactive := flag.Bool("console", false, "run the interactive terminal dashboard instead of the HTTP API")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.OpenWeather.APIKey == "" {
		log.Warn("OPENWEATHER_API_KEY is not set; simulated weather data will be shown")
	}

	// Gateway with resilience (retries + circuit breaker) and substitute data.
	gateway, err := providers.NewOpenWeatherGateway(providers.Options{
		APIKey:  cfg.OpenWeather.APIKey,
		BaseURL: cfg.OpenWeather.BaseURL,
		Units:   cfg.Units,
		Timeout: cfg.HTTPTimeout,
		Backoff: providers.DefaultBackoff(),
		Logger:  log.Named("gateway"),
	})
	if err != nil {
		log.Fatal("failed to build weather gateway", zap.Error(err))
	}

	geocoder, err := buildGeocoder(cfg, log)
	if err != nil {
		log.Fatal("failed to build geocoder", zap.Error(err))
	}

	source, err := buildPositionSource(cfg, log)
	if err != nil {
		log.Fatal("failed to build position source", zap.Error(err))
	}

	provider := location.NewProvider(location.ProviderConfig{
		Geocoder: geocoder,
		Source:   source,
		Options: location.PositionOptions{
			HighAccuracy: cfg.Position.HighAccuracy,
			Timeout:      cfg.Position.Timeout(),
			MaximumAge:   cfg.Position.MaxAge(),
		},
		Fallback: cfg.FallbackCoordinate.Coordinate(),
		Fixes:    store.NewFixStore(8),
		Logger:   log.Named("location"),
	})

	ctrl := dashboard.New(gateway, provider, dashboard.Options{
		DefaultName:       cfg.DefaultCity.Name,
		DefaultCoordinate: cfg.DefaultCity.Coordinate(),
		Logger:            log.Named("dashboard"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// First paint: the default city is fetched without user action.
	ctrl.Start(ctx)

	// Optional periodic refresh of the displayed location.
	sched := scheduler.New(ctrl, cfg.RefreshInterval, log.Named("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	if *interactive {
		c := console.New(ctrl, provider, cfg.SearchDebounce, os.Stdout, log.Named("console"))
		if err := c.Run(ctx, os.Stdin); err != nil {
			log.Error("console stopped", zap.Error(err))
		}
		stop()
		ctrl.Wait()
		return
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weatherdash",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: zap.NewStdLog(log.Named("http")).Writer(),
	}))
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherdash",
			"phase":   ctrl.Phase(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Dashboard:   ctrl,
		Searcher:    provider,
		BaseContext: ctx,
		Logger:      log.Named("api"),
	})

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	ctrl.Wait()
}

func buildGeocoder(cfg *config.AppConfig, log *zap.Logger) (location.Geocoder, error) {
	switch cfg.Geocoder.Backend {
	case config.GeocoderGoogle:
		return location.NewGoogleGeocoder(cfg.Geocoder.GoogleAPIKey), nil
	default:
		if cfg.OpenWeather.APIKey == "" {
			// Searches are answered from the built-in city list.
			return nil, nil
		}
		return location.NewOpenWeatherGeocoder(
			cfg.OpenWeather.GeoURL,
			cfg.OpenWeather.APIKey,
			cfg.HTTPTimeout,
			providers.DefaultBackoff(),
			log.Named("geocoder"),
		)
	}
}

func buildPositionSource(cfg *config.AppConfig, log *zap.Logger) (location.PositionSource, error) {
	switch cfg.Position.Source {
	case config.PositionSourceStatic:
		return location.StaticPositionSource{Coordinate: config.CoordinateConfig{
			Lat: cfg.Position.DeviceLat,
			Lon: cfg.Position.DeviceLon,
		}.Coordinate()}, nil
	case config.PositionSourceDenied:
		return location.DeniedPositionSource{}, nil
	case config.PositionSourceNone:
		return nil, nil
	default:
		return location.NewIPPositionSource(cfg.Position.IPLookupURL, log.Named("position"))
	}
}
