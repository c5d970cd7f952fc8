package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alxtravel/travel-payments/internal/adapter/secondary/mail"
	"github.com/alxtravel/travel-payments/internal/adapter/secondary/messaging"
	"github.com/alxtravel/travel-payments/internal/config"
	"github.com/alxtravel/travel-payments/internal/core/service"
	"github.com/alxtravel/travel-payments/internal/logger"
	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

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

	// Secondary adapters: mailer and messaging (concrete type for worker)
	mailer := mail.NewLogMailer(cfg.Mail.From, zapLog)
	jobs := service.NewJobHandler(mailer, zapLog)

	msgClient, err := messaging.NewRabbitMQClientConcrete(cfg.RabbitMQ.URL, zapLog)
	if err != nil {
		zapLog.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer msgClient.Close()

	err = msgClient.ConsumeJobs(func(msg messaging.JobMessage) error {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		return jobs.Handle(ctx, msg.Name, msg.Args)
	}, service.IsPermanent)
	if err != nil {
		zapLog.Fatal("failed to start consuming jobs", zap.Error(err))
	}

	zapLog.Info("notification worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down worker")
}
