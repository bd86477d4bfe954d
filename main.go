package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appCatalog "github.com/keisui/shopcore/internal/application/catalog"
	appOrder "github.com/keisui/shopcore/internal/application/order"
	"github.com/keisui/shopcore/internal/application/reservation"
	domainCatalog "github.com/keisui/shopcore/internal/domain/catalog"
	"github.com/keisui/shopcore/internal/infrastructure/id"
	"github.com/keisui/shopcore/internal/infrastructure/memory"
	"github.com/keisui/shopcore/internal/infrastructure/memtx"
	"github.com/keisui/shopcore/internal/infrastructure/observability/oteltrace"
	"github.com/keisui/shopcore/internal/infrastructure/observability/prometrics"
	"github.com/keisui/shopcore/internal/infrastructure/observability/telemetry"
	"github.com/keisui/shopcore/internal/infrastructure/observability/zaplogger"
	"github.com/keisui/shopcore/internal/observability"
	"github.com/keisui/shopcore/internal/pkg/logging"
	httppresentation "github.com/keisui/shopcore/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "shopcore")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("HTTP_ADDR", ":8080")

	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	registry := prometrics.New(serviceName, "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: registry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			nil,
			"use_case",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			nil,
			"method", "route",
		),
	}

	tel := telemetry.New(
		oteltrace.New(serviceName),
		zaplogger.Wrap(baseLogger),
		counters,
		histograms,
	)

	productRepo := memory.NewProductRepository()
	orderRepo := memory.NewOrderRepository()
	txManager := memtx.NewManager()
	idGenerator := id.NewUUIDGenerator()

	engine := reservation.NewEngine(productRepo)
	orderService := appOrder.NewService(orderRepo, engine, txManager, idGenerator, tel)
	catalogService := appCatalog.NewService(productRepo, idGenerator)

	seedCatalog(productRepo, systemLogger)

	handler := httppresentation.NewHandler(orderService, catalogService, tel.Logger(), tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

// seedCatalog loads a few demo products so the order path is usable out of
// the box. Real catalog management happens through the admin endpoint.
func seedCatalog(repo *memory.ProductRepository, logger *zap.Logger) {
	seeds := []struct {
		id    string
		name  string
		price int64
		stock int
	}{
		{"prod-espresso", "Espresso Beans 1kg", 1850, 40},
		{"prod-grinder", "Hand Grinder", 7900, 12},
		{"prod-filter", "Paper Filters x100", 450, 200},
	}
	for _, s := range seeds {
		product, err := domainCatalog.NewProduct(s.id, s.name, s.price, s.stock)
		if err != nil {
			logger.Warn("catalog_seed_skipped", zap.String("product_id", s.id), zap.Error(err))
			continue
		}
		if err := repo.Save(context.Background(), product); err != nil {
			logger.Warn("catalog_seed_failed", zap.String("product_id", s.id), zap.Error(err))
		}
	}
	logger.Info("catalog_seeded", zap.Int("products", len(seeds)))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
