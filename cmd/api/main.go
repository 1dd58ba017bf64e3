package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"tt2import/docs"
	"tt2import/internal/config"
	handlers "tt2import/internal/http/handler"
	"tt2import/internal/http/middleware"
	"tt2import/internal/logging"
	"tt2import/internal/matcher"
	"tt2import/internal/otel"
	"tt2import/internal/service"
)

// @title TurboRater Import API
// @version 1.0
// @description Imports TurboRater TT2 quote exports into customers and quotes.
// @BasePath /
func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize job store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer st.close()

	objStore, err := openBlobStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.String("backend", cfg.BlobBackend), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	customers, err := matcher.NewCached(
		matcher.New(st.customers),
		cfg.Import.CustomerCacheSize,
		time.Duration(cfg.Import.CustomerCacheTTLSec)*time.Second,
		reg,
	)
	if err != nil {
		log.Fatal("failed to initialize customer cache", zap.Error(err))
	}

	importMetrics, err := service.NewMetrics(reg)
	if err != nil {
		log.Fatal("failed to register import metrics", zap.Error(err))
	}

	processor := service.NewProcessor(objStore, st.jobs, st.quotes, customers, log, importMetrics, service.ProcessorOptions{
		Concurrency:    cfg.Import.Concurrency,
		JobTimeout:     cfg.Import.JobTimeout(),
		SkipDuplicates: cfg.Import.SkipDuplicates,
	})
	importSvc := service.NewImportService(objStore, st.jobs, processor)

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitMB << 20,
	})

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, st.health, importSvc, reg)

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

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", zap.String("addr", addr), zap.String("store", cfg.StoreBackend), zap.String("blob", cfg.BlobBackend))
	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
