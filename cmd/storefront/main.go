package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/doneduardo/storefront/api/controllers"
	"github.com/doneduardo/storefront/api/routes"
	"github.com/doneduardo/storefront/internal/catalog"
	checkoutsvc "github.com/doneduardo/storefront/internal/checkout"
	"github.com/doneduardo/storefront/pkg/backend"
	"github.com/doneduardo/storefront/pkg/cart"
	"github.com/doneduardo/storefront/pkg/config"
	"github.com/doneduardo/storefront/pkg/env"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/metrics"
)

const serviceName = "storefront"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"storage_backend": cfg.Storage.Backend.String(),
	})
	ctx = logg.WithSessionID(ctx, cfg.Storage.SessionID)

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "storefront shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	slots, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, slots.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	store := cart.New(ctx, slots.Storage,
		cart.WithKey(cfg.Storage.CartKey),
		cart.WithLogger(logg),
		cart.WithPersistTimeout(cfg.Storage.Timeout),
		cart.WithPersistErrorHandler(cartMetrics.IncPersistFailure),
	)
	cartMetrics.Set(store.Snapshot())
	store.Subscribe(cartMetrics.Observe)
	store.Subscribe(logSnapshots(ctx, logg))

	client, err := backend.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey, backend.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		return err
	}
	catalogService, err := catalog.NewService(client, store, logg)
	if err != nil {
		return err
	}
	checkoutService, err := checkoutsvc.NewService(client, store, checkoutsvc.Options{
		MerchantName:  cfg.Checkout.MerchantName,
		WhatsAppPhone: cfg.Checkout.WhatsAppPhone,
		PaymentMethod: cfg.Checkout.PaymentMethod(),
	}, logg)
	if err != nil {
		return err
	}

	readiness := map[string]controllers.Pinger{}
	if slots.Pinger != nil {
		readiness["storage"] = slots.Pinger
	}

	port := env.First(cfg.App.Port, "PORT")
	server := &http.Server{
		Addr: ":" + port,
		Handler: routes.NewRouter(cfg, logg, store, catalogService, checkoutService,
			slots.Replays, readiness, registry, httpMetrics),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "starting storefront server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func logSnapshots(ctx context.Context, logg *logger.Logger) cart.Subscriber {
	return func(snap cart.Snapshot) {
		if !logg.Enabled(ctx, zerolog.DebugLevel) {
			return
		}
		logg.Debug(logg.WithFields(ctx, map[string]any{
			"event":      snap.Event.String(),
			"version":    snap.Version,
			"lines":      len(snap.Lines),
			"item_count": snap.ItemCount,
			"total":      snap.Total.StringFixed(2),
		}), "cart.changed")
	}
}
