package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/novamart/storefront-backend/api/routes"
	"github.com/novamart/storefront-backend/internal/cart"
	"github.com/novamart/storefront-backend/internal/cart/snapshot"
	"github.com/novamart/storefront-backend/internal/checkout"
	"github.com/novamart/storefront-backend/internal/coupon"
	"github.com/novamart/storefront-backend/pkg/commerce"
	"github.com/novamart/storefront-backend/pkg/config"
	"github.com/novamart/storefront-backend/pkg/db"
	"github.com/novamart/storefront-backend/pkg/events"
	"github.com/novamart/storefront-backend/pkg/logger"
	"github.com/novamart/storefront-backend/pkg/metrics"
	"github.com/novamart/storefront-backend/pkg/migrate"
	"github.com/novamart/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	bus := events.NewBus()
	bus.Subscribe(storefrontMetrics.Subscriber())

	var (
		snapshots   cart.SnapshotStore
		dbPinger    db.Pinger
		redisPinger redis.Pinger
	)

	switch cfg.Snapshot.Backend {
	case config.SnapshotBackendSQL:
		dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
		snapshots = snapshot.NewSQLStore(dbClient.DB())
		dbPinger = dbClient

	case config.SnapshotBackendMemory:
		snapshots = snapshot.NewMemoryStore()

	default:
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		snapshots = snapshot.NewRedisStore(redisClient, cfg.Snapshot.TTL)
		redisPinger = redisClient
	}

	cartManager, err := cart.NewManager(snapshots, bus, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart manager", err)
		os.Exit(1)
	}

	commerceClient, err := commerce.NewClient(cfg.Commerce)
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	couponService, err := coupon.NewService(cartManager, commerceClient, bus, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(cartManager, commerceClient, cfg.Checkout, bus, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":              cfg.App.Env,
		"addr":             addr,
		"snapshot_backend": cfg.Snapshot.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbPinger,
			redisPinger,
			cartManager,
			couponService,
			checkoutService,
			registry,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
