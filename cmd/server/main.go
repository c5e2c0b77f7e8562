package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/application/port"
	"github.com/cmcs/claims-api/internal/application/service"
	"github.com/cmcs/claims-api/internal/config"
	"github.com/cmcs/claims-api/internal/export"
	"github.com/cmcs/claims-api/internal/infrastructure/email"
	"github.com/cmcs/claims-api/internal/infrastructure/persistence/repository"
	"github.com/cmcs/claims-api/internal/infrastructure/persistence/sqlite"
	"github.com/cmcs/claims-api/internal/infrastructure/storage"
	httpadapter "github.com/cmcs/claims-api/internal/interfaces/http"
	"github.com/cmcs/claims-api/pkg/database"
	"github.com/cmcs/claims-api/pkg/utils"
)

func main() {
	// Local overrides from .env, if present
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting claims management system", zap.Int("port", cfg.Server.Port))

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.DocumentDir, 0755); err != nil {
		logger.Fatal("Failed to create document directory", zap.Error(err))
	}

	// Infrastructure
	txManager := sqlite.NewDB(sqlDB, logger)
	claimRepo := repository.NewClaimRepository(sqlDB, logger)
	documentRepo := repository.NewDocumentRepository(sqlDB, logger)
	auditRepo := repository.NewAuditRepository(sqlDB, logger)
	batchRepo := repository.NewBatchRepository(sqlDB, logger)
	lecturerRepo := repository.NewLecturerRepository(sqlDB, logger)
	fileStore := storage.NewLocalFileStore(cfg.Storage.DocumentDir, logger)

	serviceLogger := &zapLoggerAdapter{logger: logger}
	clock := port.SystemClock{}

	// Notifications are optional: without SMTP settings decisions are
	// still recorded, just not emailed
	var notifier service.DecisionNotifier
	if cfg.SMTP.Host != "" {
		mailer, err := email.NewSMTPMailer(cfg.SMTP, logger)
		if err != nil {
			logger.Fatal("Failed to initialize mailer", zap.Error(err))
		}
		notifier = service.NewNotificationService(lecturerRepo, mailer, serviceLogger)
	} else {
		logger.Info("SMTP not configured, decision emails disabled")
	}

	// Application services
	claimService := service.NewClaimService(
		claimRepo, documentRepo, auditRepo, lecturerRepo,
		fileStore, txManager, clock, notifier, serviceLogger,
	)
	paymentService := service.NewPaymentService(
		claimRepo, batchRepo, auditRepo, txManager, clock, serviceLogger,
	)
	reportService := service.NewReportService(
		claimRepo, auditRepo, lecturerRepo, clock, serviceLogger,
	)
	exportService := service.NewExportService(
		claimRepo, batchRepo, lecturerRepo, export.NewExcelExporter(logger), serviceLogger,
	)

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTSecret:    cfg.Auth.JWTSecret,
	}, claimService, paymentService, reportService, exportService, serviceLogger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// zapLoggerAdapter adapts zap.Logger to the service and http Logger
// interfaces
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, toZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, toZapFields(keysAndValues...)...)
}

func toZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
