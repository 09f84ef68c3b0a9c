package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/snowfall-check/internal/api/http"
	"github.com/i474232898/snowfall-check/internal/app"
	"github.com/i474232898/snowfall-check/internal/config"
	applog "github.com/i474232898/snowfall-check/internal/log"
	"github.com/i474232898/snowfall-check/internal/metrics"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		applog.Logger().Fatalf("failed to load config: %v", err)
	}

	if err := applog.Init(cfg.Debug); err != nil {
		panic(err)
	}
	defer applog.Sync()
	log := applog.Named("server")

	collector := metrics.NewCollector("snowfall", prometheus.DefaultRegisterer)
	components := app.New(cfg, collector)

	// Basic app configuration
	server := fiber.New(fiber.Config{
		AppName:               "snowfall-check",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * cfg.HTTPTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	server.Use(logger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "snowfall-check",
		})
	})
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(server, httpapi.Deps{
		Snowfall: components.Snowfall,
		Search:   components.Search,
		Reverse:  components.Reverse,
		IP:       components.IP,

		Resolutions: collector,
	})

	go func() {
		log.Infow("listening", "port", cfg.Port)
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("error during shutdown", "error", err)
	}
}
