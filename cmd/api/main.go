package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docgateway/docs"
	"docgateway/internal/admission"
	"docgateway/internal/config"
	handlers "docgateway/internal/http/handler"
	"docgateway/internal/http/middleware"
	"docgateway/internal/logger"
	"docgateway/internal/otel"
	"docgateway/internal/remote"
	"docgateway/internal/service"
	"docgateway/internal/storage"
	"docgateway/internal/sweeper"
)

// @title Document Gateway API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Location())
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server_exited", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	// Transient store backing both the request pipeline and the sweeper
	store, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open transient store: %w", err)
	}

	docSvc := service.NewDocumentService(store, remote.New(cfg.Remote), service.Options{
		Admission: admission.Policy{
			MaxSizeBytes:      cfg.Transient.MaxUploadSizeBytes,
			AllowSpreadsheets: cfg.Transient.AllowSpreadsheets,
		},
		CleanupPolicy: cfg.Transient.CleanupPolicy,
		AskMode:       cfg.AskMode,
	}, log.Named("documents"))

	sweepMetrics, err := sweeper.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register sweeper metrics: %w", err)
	}
	sw := sweeper.New(store, cfg.Retention, log, sweepMetrics)
	sw.Start(ctx)
	defer sw.Stop()

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())
	// Access log renders handler errors, so everything above it sees the final status
	app.Use(middleware.Logger(log))
	app.Use(middleware.CORS(cfg.FrontendOrigin))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, store, docSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("server_starting",
			zap.String("addr", addr),
			zap.String("transient_backend", cfg.Transient.Backend),
			zap.String("cleanup_policy", cfg.Transient.CleanupPolicy),
			zap.String("ask_mode", cfg.AskMode),
		)
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("server_shutting_down")
		sw.Stop()
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server_exited_cleanly")
	return nil
}
