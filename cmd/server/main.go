package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school_backend/internal/app"
	"school_backend/internal/infra/config"
	idb "school_backend/internal/infra/database"
	"school_backend/internal/infra/file"
	"school_backend/internal/infra/httpapi"
	"school_backend/internal/infra/logger"
	"school_backend/internal/infra/mailer"
	"school_backend/internal/infra/queue"
	"school_backend/internal/infra/scheduler"
	"school_backend/internal/infra/telegram"
)

func main() {
	fmt.Println("School backend starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	if err := idb.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("FATAL: Could not apply database schema: %v", err)
	}

	// Initialize Repositories
	userRepo := idb.NewPostgresUserRepository(db, cfg.ImportChunkSize)
	roleRepo := idb.NewPostgresRoleRepository(db)
	log.Info("Repositories initialized.")

	// Initialize Task Queue (Kafka producer)
	taskQueue, err := queue.NewKafkaTaskQueue(cfg.KafkaBrokers, cfg.ImportTopic, cfg.WelcomeTopic)
	if err != nil {
		log.Fatalf("FATAL: Could not create Kafka task queue: %v", err)
	}
	defer taskQueue.Close()
	log.Info("Kafka task queue initialized.")

	// Initialize Notifier (SMTP)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	log.Info("SMTP notifier initialized.")

	// Initialize optional ops alert channel
	var opsNotifier *telegram.OpsNotifier
	if cfg.TelegramToken != "" {
		opsNotifier, err = telegram.NewOpsNotifier(cfg.TelegramToken, cfg.OpsChatID, log)
		if err != nil {
			log.Fatalf("FATAL: Could not create ops Telegram notifier: %v", err)
		}
		log.Info("Ops Telegram notifier initialized.")
	}

	// Initialize payload store
	payloadStore, err := file.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize upload dir: %v", err)
	}

	// Initialize ImportService
	importService := app.NewImportService(userRepo, roleRepo, taskQueue, smtpMailer, payloadStore, log)
	log.Info("Import service initialized.")

	// Start consumer groups
	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	if err := queue.StartImportConsumerGroup(
		consumerCtx, cfg.KafkaBrokers, cfg.ImportTopic, cfg.ConsumerGroupID+"-imports",
		importService, opsNotifier, log,
	); err != nil {
		log.Fatalf("FATAL: Could not start import consumer group: %v", err)
	}
	if err := queue.StartWelcomeConsumerGroup(
		consumerCtx, cfg.KafkaBrokers, cfg.WelcomeTopic, cfg.ConsumerGroupID+"-welcomes",
		smtpMailer, log,
	); err != nil {
		log.Fatalf("FATAL: Could not start welcome consumer group: %v", err)
	}

	// Start upload retention sweep
	cleanup := scheduler.NewCleanupScheduler(payloadStore, cfg.UploadRetention, cfg.CronSpecUploadSweep, log)
	cleanup.Start()

	// Start HTTP trigger endpoint
	importHandler := httpapi.NewImportHandler(payloadStore, taskQueue, cfg.MaxUploadBytes, log)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(importHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	log.Info("Application setup complete.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}

	stopConsumers()
	cleanup.Stop()
	// db.Close() and taskQueue.Close() are handled by defer
	log.Info("Application shut down gracefully.")
}
