package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/historical-risk-explorer/internal/api/http"
	"github.com/i474232898/historical-risk-explorer/internal/config"
	"github.com/i474232898/historical-risk-explorer/internal/geocode"
	"github.com/i474232898/historical-risk-explorer/internal/log"
	"github.com/i474232898/historical-risk-explorer/internal/store"
	"github.com/i474232898/historical-risk-explorer/internal/weather"
	"github.com/i474232898/historical-risk-explorer/internal/weather/providers"
)

func main() {
	// Load configuration (.env, config.yaml, environment).
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := log.Init(cfg.Debug); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Providers in fallback order, each behind its own circuit breaker.
	provs, err := providers.Build(cfg.Providers, httpClient, providers.Credentials{
		MeteomaticsUsername: cfg.MeteomaticsUsername,
		MeteomaticsPassword: cfg.MeteomaticsPassword,
	})
	if err != nil {
		log.Warnw("some providers are disabled", "error", err)
	}
	if len(provs) == 0 {
		log.Fatalf("no usable provider among %v", cfg.Providers)
	}

	cache, err := newCache(cfg)
	if err != nil {
		log.Fatalf("failed to open cache: %v", err)
	}

	// Core service orchestrating cache and providers.
	service := weather.NewService(cache, provs,
		weather.WithHistoryYears(cfg.HistoryYears),
		weather.WithYearConcurrency(cfg.YearConcurrency),
	)

	app := fiber.New(fiber.Config{
		AppName:               "historical-risk-explorer",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// A cold analyze request walks several providers over 30 years.
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "historical-risk-explorer",
			"providers": service.Providers(),
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service:    service,
		Geocoder:   geocode.NewGoogle(cfg.GoogleGeocodeAPIKey, cfg.HTTPTimeout),
		RiskMethod: cfg.RiskMethod,
	})

	go func() {
		log.Infow("starting server", "port", cfg.Port, "providers", service.Providers(), "cache", cfg.CacheBackend, "riskMethod", cfg.RiskMethod)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}

func newCache(cfg *config.AppConfig) (weather.Cache, error) {
	if cfg.CacheBackend == config.CacheBackendMemory {
		return store.NewMemoryStore(cfg.CacheMaxAge), nil
	}
	fs, err := store.NewFileStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	log.Infow("using file cache", "dir", fs.Dir())
	return fs, nil
}
