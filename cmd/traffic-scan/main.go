package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/citygrid/traffic-scan/internal/api/http"
	"github.com/citygrid/traffic-scan/internal/config"
	"github.com/citygrid/traffic-scan/internal/ingest"
	"github.com/citygrid/traffic-scan/internal/scheduler"
	"github.com/citygrid/traffic-scan/internal/store"
	"github.com/citygrid/traffic-scan/internal/traffic"
	"github.com/citygrid/traffic-scan/internal/traffic/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store at %s: %v", cfg.DBPath, err)
	}
	defer st.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// The provider stays nil without an API key; /probe reports the missing
	// key and in-process ingestion is disabled.
	var provider traffic.Provider
	if cfg.TomTomAPIKey != "" {
		provider = providers.NewTomTomProvider(httpClient, cfg.TomTomAPIKey)
	}

	// Optional in-process ingestion on an interval.
	if cfg.IngestInterval > 0 {
		if provider == nil {
			log.Fatalf("INGEST_INTERVAL is set but TOMTOM_API_KEY is missing")
		}
		points := traffic.Grid(cfg.BBoxSW, cfg.BBoxNE, cfg.GridRows, cfg.GridCols)
		svc := ingest.NewService(st, provider, cfg.HTTPTimeout)
		sched := scheduler.New(points, cfg.IngestInterval, 0, svc)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "traffic-scan",
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
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	httpapi.RegisterRoutes(app, st, provider)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
