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

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"property-ops-backend/config"
	"property-ops-backend/internal/api"
	"property-ops-backend/internal/db"
	"property-ops-backend/internal/intake"
	"property-ops-backend/internal/logging"
	"property-ops-backend/internal/notification"
	"property-ops-backend/internal/scheduler"
	"property-ops-backend/internal/service"
	"property-ops-backend/internal/sheet"
	"property-ops-backend/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("Configuration loaded", zap.String("path", configPath))

	appStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open data store", zap.Error(err))
	}

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Warn("VAPID keys are not configured; push notifications are disabled")
	}

	mailer := notification.NewDispatcher(
		cfg.Notification.WorkerPoolSize,
		notification.NewMailSink(cfg.Mail, logger),
		logger,
	)
	pusher := notification.NewPushNotifier(appStore, webpushOptions, logger)

	svc := service.New(appStore, mailer, pusher, service.Options{
		Property:         cfg.Property.Name,
		Currency:         cfg.Property.Currency,
		ManagerEmail:     cfg.Notification.ManagerEmail,
		ReminderLeadDays: cfg.Notification.ReminderLeadDays,
		Location:         cfg.Property.Location,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var syncer scheduler.Syncer
	if cfg.Intake.Enabled && cfg.Intake.URL != "" {
		syncer = intake.NewPoller(cfg.Intake, cfg.Property.Location, svc, logger)
	}
	sched, err := scheduler.New(cfg.Schedule, cfg.Property.Location, cfg.Notification.ReminderLeadDays, svc, syncer, logger)
	if err != nil {
		logger.Fatal("Failed to build scheduler", zap.Error(err))
	}
	go sched.Run(ctx)

	router := api.NewRouter(cfg.Server, svc, appStore, webpushOptions, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}

	logger.Info("Server gracefully stopped")
}

// openStore returns the workbook store when a workbook path is configured and
// the database store otherwise.
func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Workbook.Path != "" {
		logger.Info("Using workbook store", zap.String("path", cfg.Workbook.Path))
		return sheet.Open(cfg.Workbook.Path, cfg.Property.Location, logger)
	}

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(gormDB, logger), nil
}
