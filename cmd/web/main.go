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
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-adp-web/api/swagger"
	"github.com/noah-isme/sma-adp-web/internal/handler"
	"github.com/noah-isme/sma-adp-web/internal/repository"
	"github.com/noah-isme/sma-adp-web/internal/router"
	"github.com/noah-isme/sma-adp-web/internal/service"
	"github.com/noah-isme/sma-adp-web/internal/web"
	"github.com/noah-isme/sma-adp-web/pkg/cache"
	"github.com/noah-isme/sma-adp-web/pkg/config"
	"github.com/noah-isme/sma-adp-web/pkg/database"
	"github.com/noah-isme/sma-adp-web/pkg/logger"
	"github.com/noah-isme/sma-adp-web/pkg/observability"
	"github.com/noah-isme/sma-adp-web/pkg/storage"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

// @title SMA ADP Web
// @version 1.0.0
// @description JSON endpoints of the school administration web application. Pages are server rendered and not listed here.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	flushSentry, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flushSentry()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.SetLocation(cfg.Location())

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.Prefix, cfg.Cache.DefaultTTL, logr, cfg.Cache.Enabled)

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare uploads directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SigningSecret, cfg.Uploads.URLTTL)

	renderer, err := web.NewRenderer()
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	feeRepo := repository.NewFeePaymentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, db, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, classRepo, db, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, classRepo, teacherRepo, db, nil, logr)
	expenseSvc := service.NewExpenseService(expenseRepo, db, nil, logr)
	feeSvc := service.NewFeeService(feeRepo, studentRepo, db, nil, logr)
	messageSvc := service.NewMessageService(messageRepo, userRepo, db, nil, logr)
	photoSvc := service.NewPhotoService(studentRepo, db, store, signer, service.PhotoConfig{
		MaxBytes:     cfg.Uploads.MaxBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	}, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, messageSvc, cacheSvc, metricsSvc, cfg.Dashboard.CacheTTL, logr)
	diagnosticsSvc := service.NewDiagnosticsService(cacheSvc, metricsSvc, db, logr)
	exportSvc := service.NewExportService(service.ExportSources{
		Students: studentRepo,
		Teachers: teacherRepo,
		Subjects: subjectRepo,
		Expenses: expenseRepo,
		Fees:     feeRepo,
	}, metricsSvc, logr)

	engine := router.New(router.Options{
		Env:          cfg.Env,
		SchoolName:   cfg.SchoolName,
		Session:      cfg.Session,
		MetricsToken: cfg.Metrics.Token,
		Logger:       logr,
		Metrics:      metricsSvc,
		Renderer:     renderer,
	}, router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Students:    handler.NewStudentHandler(studentSvc, photoSvc, feeSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc, studentSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc, studentSvc, teacherSvc),
		Expenses:    handler.NewExpenseHandler(expenseSvc),
		Fees:        handler.NewFeeHandler(feeSvc, studentSvc),
		Messages:    handler.NewMessageHandler(messageSvc, userSvc),
		Exports:     handler.NewExportHandler(exportSvc),
		Diagnostics: handler.NewDiagnosticsHandler(diagnosticsSvc),
		Health:      handler.NewHealthHandler(db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
