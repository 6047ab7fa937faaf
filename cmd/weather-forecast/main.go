package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-forecast/internal/api/http"
	"github.com/i474232898/weather-forecast/internal/app"
	"github.com/i474232898/weather-forecast/internal/config"
	"github.com/i474232898/weather-forecast/internal/logging"
	"github.com/i474232898/weather-forecast/internal/scheduler"
)

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build application", zap.Error(err))
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to close cache store", zap.Error(err))
		}
	}()

	// Keeps the day's cache warm and drops entries from previous days.
	sched := scheduler.New(
		a.Service,
		a.Store,
		cfg.WarmupLocations,
		cfg.WarmupInterval,
		cfg.PruneAt,
		cfg.TimeLocation(),
		log.Named("scheduler"),
	)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", zap.Error(err))
		return 1
	}
	defer sched.Stop()

	server := httpapi.NewApp("weather-forecast")
	server.Use(logger.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-forecast",
		})
	})

	httpapi.RegisterRoutes(server, a.Service, a.Device)

	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("weather-forecast is running", zap.String("port", cfg.Port), zap.String("cache", cfg.CacheDSN))

	<-ctx.Done()
	log.Info("termination signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		return 1
	}

	return 0
}

func main() {
	os.Exit(run())
}
