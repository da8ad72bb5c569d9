package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/skalarhq/orders-service/internal/orders/application"
	"github.com/skalarhq/orders-service/internal/orders/infrastructure/bus"
	ordershttp "github.com/skalarhq/orders-service/internal/orders/infrastructure/http"
	orderspg "github.com/skalarhq/orders-service/internal/orders/infrastructure/postgres"
	"github.com/skalarhq/orders-service/pkg/config"
	"github.com/skalarhq/orders-service/pkg/gateway"
	"github.com/skalarhq/orders-service/pkg/idempotency"
	"github.com/skalarhq/orders-service/pkg/logging"
	"github.com/skalarhq/orders-service/pkg/metrics"
	"github.com/skalarhq/orders-service/pkg/shutdown"
	"github.com/skalarhq/orders-service/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "orders-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := orderspg.NewRepository(log, pool)
	if err := repo.Migrate(ctx); err != nil {
		log.Error("pg migrate failed", "err", err)
		os.Exit(1)
	}

	// Redis (event dedup)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	dedup := idempotency.NewStore(rdb, 24*time.Hour)

	// Message gateway + collaborator clients
	gw := gateway.New(log, gateway.Config{
		Brokers:        cfg.Brokers(),
		Group:          cfg.ConsumerGroup,
		ReplyPrefix:    cfg.ReplyPrefix,
		RequestTimeout: cfg.RequestTimeout,
	})
	defer gw.Close()

	catalog := bus.NewCatalogClient(gw)
	payments := bus.NewPaymentClient(gw)

	svc := application.NewService(log, repo, catalog, payments, cfg.Currency)

	busMetrics := metrics.NewBusMetrics("orders")
	handler := bus.NewHandler(log, svc, dedup, busMetrics)
	handler.Register(gw)

	// Ops HTTP server
	ops := ordershttp.NewHandler(log, pool, rdb)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      ops.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("consuming bus subjects", "group", cfg.ConsumerGroup)
		if err := gw.Run(ctx); err != nil {
			log.Error("gateway stopped with error", "err", err)
			cancel()
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("orders-service shutdown complete")
}
