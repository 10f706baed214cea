package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appcart "github.com/storekit/pos/internal/application/cart"
	appcheckout "github.com/storekit/pos/internal/application/checkout"
	"github.com/storekit/pos/internal/config"
	"github.com/storekit/pos/internal/domain/catalog"
	"github.com/storekit/pos/internal/domain/money"
	"github.com/storekit/pos/internal/domain/stock"
	"github.com/storekit/pos/internal/infrastructure/audit"
	"github.com/storekit/pos/internal/infrastructure/eventbus"
	httptransport "github.com/storekit/pos/internal/infrastructure/http"
	"github.com/storekit/pos/internal/infrastructure/id"
	"github.com/storekit/pos/internal/infrastructure/memory"
	obsinfra "github.com/storekit/pos/internal/infrastructure/observability"
	"github.com/storekit/pos/internal/infrastructure/observability/oteltrace"
	"github.com/storekit/pos/internal/infrastructure/observability/prometrics"
	"github.com/storekit/pos/internal/infrastructure/observability/zaplogger"
	"github.com/storekit/pos/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)

	registry := prometrics.New(cfg.ServiceName, "")
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
		observability.MExternalRequests: registry.Counter(
			string(observability.MExternalRequests),
			"Total number of calls to external collaborators.",
			"peer", "endpoint", "outcome",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP request handling in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of external calls in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}
	tel := obsinfra.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	ledger := stock.NewLedger()
	cat := memory.NewCatalog(ledger)
	seedCatalog(cat, logger)

	salesRepo := memory.NewSaleRepository()
	carts := memory.NewCartStore()
	idGenerator := id.NewUUIDGenerator()

	bus := eventbus.New(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	auditWorker := audit.New(bus, logger)
	auditWorker.Start()

	cartService := appcart.NewService(cat, logger)
	finishSale := appcheckout.NewFinishSaleUseCase(ledger, salesRepo, idGenerator, bus, tel)

	handler := httptransport.NewHandler(carts, cartService, finishSale)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.ObservabilityMiddleware(logger, tel)(handler.Router()))

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error",
				observability.F("error", err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error",
			observability.F("error", err),
		)
	} else {
		logger.Info("http_server_stopped")
	}
}

// seedCatalog loads a small demo assortment so the POS endpoints are usable
// out of the box.
func seedCatalog(cat *memory.Catalog, logger observability.Logger) {
	seeds := []struct {
		id, code, name string
		price          money.Cents
		stock          int
	}{
		{"p-1001", "4006381333931", "Espresso Beans 1kg", 1250, 40},
		{"p-1002", "7290002055533", "Moka Pot 6-cup", 2500, 12},
		{"p-1003", "5012345678900", "Ceramic Mug 350ml", 1000, 25},
		{"p-1004", "9310779300005", "Pour-over Filter x40", 450, 60},
	}

	for _, s := range seeds {
		p, err := catalog.NewProduct(s.id, s.code, s.name, s.price)
		if err != nil {
			logger.Error("catalog_seed_invalid",
				observability.F("product_id", s.id),
				observability.F("error", err),
			)
			continue
		}
		if err := cat.Seed(p, s.stock); err != nil {
			logger.Error("catalog_seed_failed",
				observability.F("product_id", s.id),
				observability.F("error", err),
			)
		}
	}
}
