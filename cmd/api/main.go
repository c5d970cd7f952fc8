package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/alxtravel/travel-payments/internal/adapter/primary/http"
	"github.com/alxtravel/travel-payments/internal/adapter/secondary/cache"
	"github.com/alxtravel/travel-payments/internal/adapter/secondary/database"
	"github.com/alxtravel/travel-payments/internal/adapter/secondary/gateway"
	"github.com/alxtravel/travel-payments/internal/adapter/secondary/messaging"
	"github.com/alxtravel/travel-payments/internal/adapter/secondary/metrics"
	"github.com/alxtravel/travel-payments/internal/config"
	"github.com/alxtravel/travel-payments/internal/constant/model/db"
	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/core/service"
	"github.com/alxtravel/travel-payments/internal/logger"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLog.Sync()

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("api server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Secondary adapter: Database
	dbConn, err := db.NewDB(cfg.Database.URL, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()
	zapLog.Info("connected to database")

	// Secondary adapters: repositories and job queue
	paymentRepo := database.NewGormPaymentRepository(dbConn.DB)
	bookingRepo := database.NewGormBookingRepository(dbConn.DB)

	jobQueue, err := messaging.NewRabbitMQClient(cfg.RabbitMQ.URL, zapLog)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer jobQueue.Close()

	var idempotency output.IdempotencyStore
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		idempotency = cache.NewIdempotencyStore(redisClient)
		zapLog.Info("idempotency keys enabled", zap.String("redis", cfg.Redis.Addr))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPrometheusMetrics(registry)

	chapa := gateway.NewChapaClient(gateway.Config{
		BaseURL:         cfg.Chapa.BaseURL,
		SecretKey:       cfg.Chapa.SecretKey,
		WebhookSecret:   cfg.Chapa.WebhookSecret,
		Currency:        core.Currency(cfg.Chapa.Currency),
		ReturnURL:       cfg.Chapa.ReturnURL,
		ReferencePrefix: cfg.Chapa.ReferencePrefix,
		Timeout:         cfg.Chapa.Timeout,
	}, paymentMetrics, zapLog)

	// Core services (implement input ports)
	notifier := service.NewNotifier(bookingRepo, jobQueue, paymentMetrics, zapLog)
	reconciler := service.NewReconciler(paymentRepo, notifier, paymentMetrics, zapLog)
	paymentService := service.NewPaymentService(service.PaymentDeps{
		PaymentRepo:     paymentRepo,
		BookingRepo:     bookingRepo,
		Gateway:         chapa,
		Reconciler:      reconciler,
		Metrics:         paymentMetrics,
		Log:             zapLog,
		ReferencePrefix: cfg.Chapa.ReferencePrefix,
		CallbackURL:     cfg.Chapa.CallbackURL,
	})
	bookingService := service.NewBookingService(bookingRepo, notifier)

	// Primary adapter: HTTP
	e := httpadapter.NewRouter(httpadapter.RouterDeps{
		PaymentHandler: httpadapter.NewPaymentHandler(paymentService),
		BookingHandler: httpadapter.NewBookingHandler(bookingService),
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		RateLimit:      cfg.RateLimit,
		Gatherer:       registry,
		HealthCheck:    dbConn.Ping,
		Log:            zapLog,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("starting API server", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLog.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	zapLog.Info("API server exited")
	return nil
}
